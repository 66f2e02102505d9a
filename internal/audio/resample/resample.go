package resample

import (
	"fmt"
	"soundcapture/internal/audio/convert"

	"github.com/dh1tw/gosamplerate"
)

// output buffer handed to libsamplerate, in interleaved samples
const outputBufferLen = 1 << 16

// Resampler converts interleaved S16 audio between two sample rates.
type Resampler struct {
	src      gosamplerate.Src
	ratio    float64
	channels int
}

func New(fromRate, toRate uint32, channels int) (*Resampler, error) {
	if fromRate == 0 || toRate == 0 {
		return nil, fmt.Errorf("invalid resampling %d Hz -> %d Hz", fromRate, toRate)
	}
	src, err := gosamplerate.New(gosamplerate.SRC_SINC_FASTEST, channels, outputBufferLen)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	return &Resampler{
		src:      src,
		ratio:    float64(toRate) / float64(fromRate),
		channels: channels,
	}, nil
}

// NewIfNeeded returns nil when no conversion is required.
func NewIfNeeded(fromRate, toRate uint32, channels int) (*Resampler, error) {
	if fromRate == toRate {
		return nil, nil
	}
	return New(fromRate, toRate, channels)
}

// Process converts one chunk. libsamplerate keeps filter state between calls,
// so output length may lag the input by a few samples.
func (r *Resampler) Process(pcm []int16) ([]int16, error) {
	out, err := r.src.Process(convert.Int16ToFloat32(pcm), r.ratio, false)
	if err != nil {
		return nil, fmt.Errorf("resampling failed: %w", err)
	}
	return convert.Float32ToInt16(out), nil
}

func (r *Resampler) Ratio() float64 {
	return r.ratio
}

func (r *Resampler) Close() error {
	return gosamplerate.Delete(r.src)
}
