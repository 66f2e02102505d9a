package app

import (
	"context"
	"errors"
	"fmt"
	"soundcapture/internal/audio/capture"
	"soundcapture/internal/audio/config"
	"soundcapture/internal/audio/decoder"
	"soundcapture/internal/audio/encoder"
	"soundcapture/internal/audio/pipeline"
	"soundcapture/internal/audio/playback"
	"soundcapture/internal/audio/resample"
	"soundcapture/internal/capturer"
	"soundcapture/internal/harness"
	"soundcapture/internal/sink"
	settings "soundcapture/pkg/config"
	"soundcapture/pkg/connection"
	"soundcapture/pkg/interface/desktop"
	"soundcapture/pkg/web"
	"soundcapture/tmplt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session wires a malgo capture device, the codec chain and the configured
// outputs into one harness run.
type Session struct {
	settings *settings.Settings
	audio    config.AudioConfig
	logger   zerolog.Logger

	src       *capture.MalgoCapture
	resampler *resample.Resampler
	capturer  *capturer.Capturer
	outputs
}

type outputs struct {
	sinks     []harness.Sink
	broadcast *connection.Broadcaster
	player    *playback.MalgoPlayback
}

func NewSession(s *settings.Settings, logger zerolog.Logger) (*Session, error) {
	ac, err := s.AudioConfig()
	if err != nil {
		return nil, err
	}
	sess := &Session{settings: s, audio: ac, logger: logger}

	if err := sess.buildCapturer(); err != nil {
		sess.release()
		return nil, err
	}
	out, err := buildOutputs(s, ac)
	if err != nil {
		sess.release()
		return nil, err
	}
	sess.outputs = out
	return sess, nil
}

func (sess *Session) buildCapturer() error {
	ac := sess.audio

	enc, err := encoder.New(ac)
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}
	opts := []capturer.Option{capturer.WithLogger(sess.logger.With().Str("component", "capturer").Logger())}

	sess.resampler, err = resample.NewIfNeeded(ac.DeviceSampleRate, ac.SampleRate, int(ac.Channels))
	if err != nil {
		return fmt.Errorf("failed to create resampler: %w", err)
	}
	if sess.resampler != nil {
		opts = append(opts, capturer.WithResampler(sess.resampler))
	}

	sess.src, err = capture.NewMalgoCapture(ac)
	if err != nil {
		return err
	}

	sess.capturer, err = capturer.New(ac, sess.src, enc, opts...)
	return err
}

// buildOutputs creates the file, monitor and websocket sinks that are enabled.
func buildOutputs(s *settings.Settings, ac config.AudioConfig) (outputs, error) {
	var out outputs
	closeAll := func() { closeSinks(out.sinks) }

	if s.Output != "" {
		fs, err := sink.NewFileSink(ac, s.Output)
		if err != nil {
			return outputs{}, fmt.Errorf("failed to open output: %w", err)
		}
		out.sinks = append(out.sinks, fs)
	}

	if s.Monitor {
		dec, err := decoder.New(ac)
		if err != nil {
			closeAll()
			return outputs{}, fmt.Errorf("failed to create decoder: %w", err)
		}
		out.player, err = playback.NewMalgoPlayback(ac)
		if err != nil {
			closeAll()
			return outputs{}, err
		}
		out.sinks = append(out.sinks, pipeline.NewMonitor(dec, out.player, ac.BufferSize))
	}

	if s.WSAddr != "" {
		out.broadcast = connection.NewBroadcaster(ac.BufferSize)
		out.sinks = append(out.sinks, out.broadcast)
	}
	return out, nil
}

// closeSinks releases sinks opened before a later output failed.
func closeSinks(sinks []harness.Sink) error {
	var errs []error
	for _, sk := range sinks {
		if err := sk.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to close outputs")
	}
	return err
}

// Monitor returns the playback control, or nil when monitoring is off.
func (sess *Session) Monitor() desktop.Pauser {
	if sess.player == nil {
		return nil
	}
	return sess.player
}

// Run performs the timed capture. The web server, if any, lives as long as the run.
func (sess *Session) Run(ctx context.Context) (harness.Summary, error) {
	var wg sync.WaitGroup
	webCtx, stopWeb := context.WithCancel(ctx)
	defer func() {
		stopWeb()
		wg.Wait()
	}()

	if sess.broadcast != nil {
		mux := web.NewMux(sess.broadcast.HandleWebsocket, tmplt.PageData{
			Title:      "soundcapture",
			Codec:      sess.audio.Type.String(),
			SampleRate: sess.audio.SampleRate,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := web.Serve(webCtx, sess.settings.WSAddr, mux); err != nil {
				sess.logger.Error().Err(err).Msg("Web server failed")
			}
		}()
	}

	h := harness.New(sess.capturer,
		harness.WithDuration(sess.settings.Duration),
		harness.WithSinks(sess.sinks...),
		harness.WithLogger(sess.logger.With().Str("component", "harness").Logger()),
	)
	summary, err := h.Run(ctx)

	// a failed start leaves the device and resampler with us
	if sess.capturer.State() == capturer.StateCreated {
		sess.release()
	}

	stats := sess.capturer.Stats()
	sess.logger.Info().
		Uint64("delivered", stats.Delivered).
		Uint64("dropped", stats.Dropped).
		Uint64("skipped", stats.Skipped).
		Msg("Capture finished")
	return summary, err
}

func (sess *Session) release() {
	var errs []error
	if sess.src != nil {
		errs = append(errs, sess.src.Close())
	}
	if sess.resampler != nil {
		errs = append(errs, sess.resampler.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("Failed to release capture resources")
	}
}
