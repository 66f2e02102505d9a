package capturer

import (
	"errors"
	"fmt"
	"soundcapture/internal/audio/config"
	"soundcapture/internal/audio/convert"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrSourceNil        = errors.New("capture source cannot be nil")
	ErrEncoderNil       = errors.New("encoder cannot be nil")
	ErrAlreadyListening = errors.New("listener already started")
	ErrNotListening     = errors.New("listener not started")
	ErrClosed           = errors.New("capture handle closed")
)

// Source delivers raw interleaved S16LE audio.
type Source interface {
	Start(onData func(pcm []byte)) error
	Stop() error
	Close() error
}

type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
}

type Resampler interface {
	Process(pcm []int16) ([]int16, error)
	Close() error
}

type Option func(*Capturer)

// WithResampler converts device audio to the codec rate before framing.
func WithResampler(r Resampler) Option {
	return func(c *Capturer) {
		c.resampler = r
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Capturer) {
		c.logger = l
	}
}

// Capturer owns one capture source and turns its audio into encoded frames.
// It goes Created -> Listening -> Stopped once and cannot be restarted.
type Capturer struct {
	cfg       config.AudioConfig
	src       Source
	enc       Encoder
	resampler Resampler
	logger    zerolog.Logger

	mu     sync.Mutex // guards state, frames and stats
	state  State
	frames chan Frame
	stats  Stats

	// touched only from the source callback
	pending []int16
	pts     int64
}

func New(cfg config.AudioConfig, src Source, enc Encoder, opts ...Option) (*Capturer, error) {
	if src == nil {
		return nil, ErrSourceNil
	}
	if enc == nil {
		return nil, ErrEncoderNil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio config: %w", err)
	}

	c := &Capturer{
		cfg:    cfg,
		src:    src,
		enc:    enc,
		logger: log.With().Str("component", "capturer").Logger(),
		state:  StateCreated,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StartListener starts the source and returns the channel frames are delivered on.
// The channel is closed by CloseListener.
func (c *Capturer) StartListener() (<-chan Frame, error) {
	c.mu.Lock()
	switch c.state {
	case StateListening:
		c.mu.Unlock()
		return nil, ErrAlreadyListening
	case StateStopped:
		c.mu.Unlock()
		return nil, ErrClosed
	}
	frames := make(chan Frame, c.cfg.BufferSize)
	c.frames = frames
	c.state = StateListening
	c.pending = c.pending[:0]
	c.pts = 0
	c.mu.Unlock()

	if err := c.src.Start(c.onData); err != nil {
		c.mu.Lock()
		c.state = StateCreated
		c.frames = nil
		c.mu.Unlock()
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	c.logger.Info().
		Str("codec", c.cfg.Type.String()).
		Uint32("sample_rate", c.cfg.SampleRate).
		Uint16("channels", c.cfg.Channels).
		Int("frame_samples", c.cfg.FrameSamples).
		Msg("Listener started")
	return frames, nil
}

// CloseListener stops delivery, closes the frame channel and releases the source.
// Calling it again after it succeeded is a no-op.
func (c *Capturer) CloseListener() error {
	c.mu.Lock()
	switch c.state {
	case StateCreated:
		c.mu.Unlock()
		return ErrNotListening
	case StateStopped:
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopped
	close(c.frames)
	stats := c.stats
	c.mu.Unlock()

	var errs []error
	if err := c.src.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop capture: %w", err))
	}
	if err := c.src.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release capture: %w", err))
	}
	if c.resampler != nil {
		if err := c.resampler.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to release resampler: %w", err))
		}
	}

	c.logger.Info().
		Uint64("delivered", stats.Delivered).
		Uint64("dropped", stats.Dropped).
		Uint64("skipped", stats.Skipped).
		Msg("Listener closed")
	return errors.Join(errs...)
}

func (c *Capturer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Capturer) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Capturer) listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateListening
}

// onData runs on the source callback: S16LE -> resample -> fixed frames -> encode -> deliver.
func (c *Capturer) onData(raw []byte) {
	if !c.listening() {
		return
	}

	samples := convert.BytesToInt16(raw)
	if c.resampler != nil {
		var err error
		samples, err = c.resampler.Process(samples)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Resample failed, dropping period")
			return
		}
	}
	c.pending = append(c.pending, samples...)

	stride := c.cfg.FrameStride()
	for len(c.pending) >= stride {
		frame := c.pending[:stride]
		pts := c.pts
		c.pts += int64(c.cfg.FrameSamples)

		pkt, err := c.enc.Encode(frame)
		c.pending = c.pending[stride:]
		if err != nil {
			c.logger.Warn().Err(err).Int64("pts", pts).Msg("Encode failed")
			c.countSkipped(pts)
			continue
		}
		if len(pkt) == 0 {
			c.countSkipped(pts)
			continue
		}
		c.deliver(Frame{Data: pkt, PTS: pts, Duration: c.cfg.FrameDuration()})
	}
}

func (c *Capturer) countSkipped(pts int64) {
	c.mu.Lock()
	c.stats.Skipped++
	c.stats.LastPTS = pts
	c.mu.Unlock()
}

// deliver never blocks the audio thread: a full channel drops the frame.
func (c *Capturer) deliver(f Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateListening {
		return
	}
	c.stats.LastPTS = f.PTS
	select {
	case c.frames <- f:
		c.stats.Delivered++
		c.stats.Bytes += uint64(len(f.Data))
	default:
		c.stats.Dropped++
		c.logger.Debug().Int64("pts", f.PTS).Msg("Frame channel full, dropping frame")
	}
}
