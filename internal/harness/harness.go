package harness

import (
	"context"
	"errors"
	"fmt"
	"soundcapture/internal/capturer"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultDuration = 5000 * time.Millisecond

// Listener is the capture handle the harness drives. CloseListener must close
// the channel returned by StartListener, even when it also returns an error;
// Run drains that channel before returning.
type Listener interface {
	StartListener() (<-chan capturer.Frame, error)
	CloseListener() error
}

// Sink receives every delivered frame, in order, from a single goroutine.
type Sink interface {
	WriteFrame(f capturer.Frame) error
	Close() error
}

type Option func(*Harness)

func WithDuration(d time.Duration) Option {
	return func(h *Harness) {
		h.duration = d
	}
}

func WithClock(c clock.Clock) Option {
	return func(h *Harness) {
		h.clock = c
	}
}

func WithSinks(sinks ...Sink) Option {
	return func(h *Harness) {
		h.sinks = append(h.sinks, sinks...)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Summary describes one finished run.
type Summary struct {
	Frames     uint64
	Bytes      uint64
	FirstPTS   int64
	LastPTS    int64
	SinkErrors uint64
	Elapsed    time.Duration
}

// Harness runs one capture session: start, log every frame, stop after a fixed time.
type Harness struct {
	listener Listener
	duration time.Duration
	clock    clock.Clock
	sinks    []Sink
	logger   zerolog.Logger
}

func New(l Listener, opts ...Option) *Harness {
	h := &Harness{
		listener: l,
		duration: DefaultDuration,
		clock:    clock.New(),
		logger:   log.With().Str("component", "harness").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the listener and stops it once the duration elapses or ctx ends.
// Frames already queued when the stop happens are still consumed.
func (h *Harness) Run(ctx context.Context) (Summary, error) {
	// armed before starting so the stop deadline never depends on start latency
	timer := h.clock.Timer(h.duration)
	defer timer.Stop()
	startedAt := h.clock.Now()

	h.logger.Info().Dur("duration", h.duration).Msg("starting listener")
	frames, err := h.listener.StartListener()
	if err != nil {
		h.closeSinks()
		return Summary{}, fmt.Errorf("failed to start listener: %w", err)
	}

	done := make(chan Summary, 1)
	go func() {
		done <- h.consume(frames)
	}()

	select {
	case <-timer.C:
	case <-ctx.Done():
		h.logger.Info().Err(ctx.Err()).Msg("run cancelled")
	}

	h.logger.Info().Msg("stopping listener")
	stopErr := h.listener.CloseListener()

	summary := <-done
	summary.Elapsed = h.clock.Since(startedAt)

	closeErr := h.closeSinks()

	h.logger.Info().
		Uint64("frames", summary.Frames).
		Uint64("bytes", summary.Bytes).
		Int64("last_pts", summary.LastPTS).
		Uint64("sink_errors", summary.SinkErrors).
		Dur("elapsed", summary.Elapsed).
		Msg("listener stopped")

	if stopErr != nil {
		return summary, fmt.Errorf("failed to stop listener: %w", stopErr)
	}
	if closeErr != nil {
		return summary, fmt.Errorf("failed to close sinks: %w", closeErr)
	}
	return summary, nil
}

func (h *Harness) closeSinks() error {
	var errs []error
	for _, s := range h.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Harness) consume(frames <-chan capturer.Frame) Summary {
	var s Summary
	for f := range frames {
		h.logger.Info().Int("bytes", len(f.Data)).Int64("pts", f.PTS).Msg("frame")

		if s.Frames == 0 {
			s.FirstPTS = f.PTS
		}
		s.Frames++
		s.Bytes += uint64(len(f.Data))
		s.LastPTS = f.PTS

		for _, sink := range h.sinks {
			if err := sink.WriteFrame(f); err != nil {
				s.SinkErrors++
				h.logger.Warn().Err(err).Int64("pts", f.PTS).Msg("sink write failed")
			}
		}
	}
	return s
}
