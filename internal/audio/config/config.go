package config

import (
	"errors"
	"fmt"
	"soundcapture/internal/audio/convert"
	"time"
)

type AudioCodecType string

func (ac AudioCodecType) String() string {
	return string(ac)
}

const (
	SampleRateOpus   = 48000 // for opus better to use 48000
	FrameSamplesOpus = 960   // samples 20 ms at 48kHz for opus
	ChannelsOpus     = 1
	BitrateOpus      = 64000

	SampleRatePCMU   = 8000
	FrameSamplesPCMU = 160 // samples 20 ms at 8kHz
	ChannelsPCMU     = 1

	// raw capture keeps the ALSA settings: CD quality, stereo, 512 frame periods
	SampleRatePCM   = 44100
	FrameSamplesPCM = 512
	ChannelsPCM     = 2

	DeviceSampleRate = 44100
	BufferSize       = 300 // channel buffer size in frames
	EnergyThreshold  = 500 // RMS energy threshold for silence detection

	AudioCodecOpus AudioCodecType = "opus"
	AudioCodecPCMU AudioCodecType = "pcmu"
	AudioCodecPCM  AudioCodecType = "pcm"
)

var (
	ErrUnknownCodec     = errors.New("unknown codec type")
	ErrInvalidRate      = errors.New("sample rate must be positive")
	ErrInvalidChannels  = errors.New("channels must be 1 or 2")
	ErrInvalidFrameSize = errors.New("invalid frame size for given sample rate")
	ErrInvalidBuffer    = errors.New("buffer size must be positive")
)

type AudioConfig struct {
	Type             AudioCodecType
	SampleRate       uint32 // codec sample rate
	DeviceSampleRate uint32 // rate the capture device is opened with
	FrameSamples     int    // samples per channel in one encoded frame
	Channels         uint16
	BufferSize       int // frame channel buffer size in frames
	Bitrate          int // bits per second, opus only
	DTX              bool
}

// NewOpusConfig creates AudioConfig for Opus codec
func NewOpusConfig() AudioConfig {
	return AudioConfig{
		Type:             AudioCodecOpus,
		SampleRate:       SampleRateOpus,
		DeviceSampleRate: DeviceSampleRate,
		FrameSamples:     FrameSamplesOpus,
		Channels:         ChannelsOpus,
		BufferSize:       BufferSize,
		Bitrate:          BitrateOpus,
		DTX:              true,
	}
}

// NewPCMUConfig creates AudioConfig for PCMU/G.711 codec
func NewPCMUConfig() AudioConfig {
	return AudioConfig{
		Type:             AudioCodecPCMU,
		SampleRate:       SampleRatePCMU,
		DeviceSampleRate: DeviceSampleRate,
		FrameSamples:     FrameSamplesPCMU,
		Channels:         ChannelsPCMU,
		BufferSize:       BufferSize,
		DTX:              true,
	}
}

// NewPCMConfig creates AudioConfig for uncompressed S16LE frames.
func NewPCMConfig() AudioConfig {
	return AudioConfig{
		Type:             AudioCodecPCM,
		SampleRate:       SampleRatePCM,
		DeviceSampleRate: DeviceSampleRate,
		FrameSamples:     FrameSamplesPCM,
		Channels:         ChannelsPCM,
		BufferSize:       BufferSize,
	}
}

// ForCodec returns the default config for the named codec.
func ForCodec(name string) (AudioConfig, error) {
	switch AudioCodecType(name) {
	case AudioCodecOpus:
		return NewOpusConfig(), nil
	case AudioCodecPCMU:
		return NewPCMUConfig(), nil
	case AudioCodecPCM:
		return NewPCMConfig(), nil
	default:
		return AudioConfig{}, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

func (ac AudioConfig) Validate() error {
	switch ac.Type {
	case AudioCodecOpus, AudioCodecPCMU, AudioCodecPCM:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCodec, ac.Type)
	}
	if ac.SampleRate == 0 || ac.DeviceSampleRate == 0 {
		return ErrInvalidRate
	}
	if ac.Channels != 1 && ac.Channels != 2 {
		return ErrInvalidChannels
	}
	if ac.BufferSize <= 0 {
		return ErrInvalidBuffer
	}
	if ac.FrameSamples <= 0 {
		return ErrInvalidFrameSize
	}
	if ac.Type == AudioCodecOpus && !convert.IsFrameSizeValid(int(ac.SampleRate), ac.FrameSamples) {
		return fmt.Errorf("%w: %d samples at %d Hz", ErrInvalidFrameSize, ac.FrameSamples, ac.SampleRate)
	}
	return nil
}

// FrameStride is the number of interleaved samples in one frame.
func (ac AudioConfig) FrameStride() int {
	return ac.FrameSamples * int(ac.Channels)
}

func (ac AudioConfig) FrameDuration() time.Duration {
	if ac.SampleRate == 0 {
		return 0
	}
	return time.Duration(ac.FrameSamples) * time.Second / time.Duration(ac.SampleRate)
}

// NeedsResampling reports whether device audio has to be converted before encoding.
func (ac AudioConfig) NeedsResampling() bool {
	return ac.DeviceSampleRate != ac.SampleRate
}
