package encoder

import (
	"fmt"
	"soundcapture/internal/audio/config"
)

// Encoder turns one frame of interleaved PCM into a codec payload.
// A nil payload with a nil error means the frame carried nothing worth sending.
type Encoder interface {
	Encode(pcm []int16) ([]byte, error)
}

// New builds the encoder for the codec named in the config.
func New(cfg config.AudioConfig) (Encoder, error) {
	switch cfg.Type {
	case config.AudioCodecOpus:
		return NewOpusEncoder(int(cfg.SampleRate), int(cfg.Channels), cfg.Bitrate, cfg.DTX)
	case config.AudioCodecPCMU:
		return &PCMUEncoder{KeepSilence: !cfg.DTX}, nil
	case config.AudioCodecPCM:
		return PCMEncoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCodec, cfg.Type)
	}
}
