package decoder

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// opus packets carry at most 120 ms of audio
const maxOpusFrameMs = 120

type OpusDecoder struct {
	dec        *opus.Decoder
	sampleRate int
	channels   int
	frameSize  int
}

func NewOpusDecoder(sampleRate, channels, frameSize int) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &OpusDecoder{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  frameSize,
	}, nil
}

// Decode decodes one opus packet into interleaved samples.
func (d *OpusDecoder) Decode(packet []byte) ([]int16, error) {
	intBuf := make([]int16, d.sampleRate*maxOpusFrameMs/1000*d.channels)
	n, err := d.dec.Decode(packet, intBuf)
	if err != nil {
		return nil, err
	}
	return intBuf[:n*d.channels], nil
}
