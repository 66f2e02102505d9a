package capture

import (
	"errors"
	"fmt"
	"runtime"
	"soundcapture/internal/audio/config"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrNotStarted = errors.New("capture device not started")

// MalgoCapture reads S16LE audio from the default capture device.
type MalgoCapture struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	cfg    config.AudioConfig
	logger zerolog.Logger
	mu     sync.Mutex
}

func NewMalgoCapture(audiocfg config.AudioConfig) (*MalgoCapture, error) {
	logger := log.With().Str("component", "capture").Logger()
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		logger.Debug().Str("malgo", msg).Msg("Malgo context message")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init malgo context: %w", err)
	}

	return &MalgoCapture{
		ctx:    ctx,
		cfg:    audiocfg,
		logger: logger,
	}, nil
}

// Start opens the device and begins calling onData with each captured period.
// onData runs on the audio thread and owns the slice it receives.
func (mc *MalgoCapture) Start(onData func(pcm []byte)) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	capCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	capCfg.Capture.Format = malgo.FormatS16
	capCfg.Capture.Channels = uint32(mc.cfg.Channels)
	capCfg.SampleRate = mc.cfg.DeviceSampleRate

	// alsa specific settings for linux
	if runtime.GOOS == "linux" {
		capCfg.Alsa.NoMMap = 1
	}

	onCapture := func(_, input []byte, _ uint32) {
		pcm := make([]byte, len(input))
		copy(pcm, input)
		onData(pcm)
	}

	device, err := malgo.InitDevice(mc.ctx.Context, capCfg, malgo.DeviceCallbacks{Data: onCapture})
	if err != nil {
		return fmt.Errorf("failed to open capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	mc.device = device

	mc.logger.Info().
		Uint32("sample_rate", capCfg.SampleRate).
		Uint32("channels", capCfg.Capture.Channels).
		Msg("Capture device started")
	return nil
}

// Stop halts the device; no onData call happens after it returns.
func (mc *MalgoCapture) Stop() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.device == nil {
		return ErrNotStarted
	}
	if err := mc.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	mc.device.Uninit()
	mc.device = nil
	mc.logger.Info().Msg("Capture device stopped")
	return nil
}

// Close releases the malgo context. The capture cannot be started again.
func (mc *MalgoCapture) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.device != nil {
		mc.device.Uninit()
		mc.device = nil
	}
	if mc.ctx != nil {
		err := mc.ctx.Uninit()
		mc.ctx.Free()
		mc.ctx = nil
		if err != nil {
			return fmt.Errorf("failed to release malgo context: %w", err)
		}
	}
	return nil
}
