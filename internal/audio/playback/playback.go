package playback

import (
	"fmt"
	"soundcapture/internal/audio/config"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MalgoPlayback plays interleaved S16 frames pushed on InChan through the
// default output device. Missing data is played as silence.
type MalgoPlayback struct {
	InChan     chan []int16
	device     *malgo.Device
	ctx        *malgo.AllocatedContext
	logger     zerolog.Logger
	pauseMutex sync.RWMutex
	paused     bool

	// touched only from the device callback
	remainder []int16
}

func NewMalgoPlayback(audiocfg config.AudioConfig) (*MalgoPlayback, error) {
	logger := log.With().Str("component", "playback").Logger()
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		logger.Debug().Str("malgo", msg).Msg("Malgo context message")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init malgo context: %w", err)
	}

	mp := &MalgoPlayback{
		InChan: make(chan []int16, audiocfg.BufferSize),
		ctx:    ctx,
		logger: logger,
	}

	playCfg := malgo.DefaultDeviceConfig(malgo.Playback)
	playCfg.Playback.Format = malgo.FormatS16
	playCfg.Playback.Channels = uint32(audiocfg.Channels)
	playCfg.SampleRate = audiocfg.SampleRate

	playDev, err := malgo.InitDevice(ctx.Context, playCfg, malgo.DeviceCallbacks{Data: mp.onPlay})
	if err != nil {
		mp.releaseContext()
		return nil, fmt.Errorf("failed to open playback device: %w", err)
	}
	mp.device = playDev

	if err := mp.device.Start(); err != nil {
		mp.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	logger.Info().Uint32("sample_rate", playCfg.SampleRate).Msg("Playback device started")
	return mp, nil
}

func (mp *MalgoPlayback) onPlay(out, _ []byte, _ uint32) {
	if mp.Paused() {
		clear(out)
		return
	}
	Fill(out, &mp.remainder, mp.InChan)
}

// Fill writes S16LE samples into out, taking leftovers first and then frames
// from in without blocking. Unused samples of the last frame are kept in rem.
func Fill(out []byte, rem *[]int16, in <-chan []int16) {
	pos := 0
	for pos+1 < len(out) {
		if len(*rem) == 0 {
			select {
			case frame := <-in:
				*rem = frame
				continue
			default:
				clear(out[pos:])
				return
			}
		}
		sample := (*rem)[0]
		*rem = (*rem)[1:]
		out[pos] = byte(sample)        // low byte
		out[pos+1] = byte(sample >> 8) // high byte
		pos += 2
	}
}

func (mp *MalgoPlayback) SetPaused(paused bool) {
	mp.pauseMutex.Lock()
	mp.paused = paused
	mp.pauseMutex.Unlock()
}

func (mp *MalgoPlayback) Paused() bool {
	mp.pauseMutex.RLock()
	defer mp.pauseMutex.RUnlock()
	return mp.paused
}

func (mp *MalgoPlayback) Close() {
	if mp.device != nil {
		mp.device.Uninit()
		mp.device = nil
	}
	mp.releaseContext()
}

func (mp *MalgoPlayback) releaseContext() {
	if mp.ctx != nil {
		if err := mp.ctx.Uninit(); err != nil {
			mp.logger.Warn().Err(err).Msg("Failed to release malgo context")
		}
		mp.ctx.Free()
		mp.ctx = nil
	}
}

// Input is the channel decoded frames are queued on.
func (mp *MalgoPlayback) Input() chan<- []int16 {
	return mp.InChan
}
