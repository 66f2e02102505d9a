package decoder

import (
	"fmt"
	"soundcapture/internal/audio/config"
)

type Decoder interface {
	Decode(encoded []byte) ([]int16, error)
}

// New builds the decoder matching the encoder that New in package encoder picks.
func New(cfg config.AudioConfig) (Decoder, error) {
	switch cfg.Type {
	case config.AudioCodecOpus:
		return NewOpusDecoder(int(cfg.SampleRate), int(cfg.Channels), cfg.FrameSamples)
	case config.AudioCodecPCMU:
		return &PCMUDecoder{}, nil
	case config.AudioCodecPCM:
		return PCMDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCodec, cfg.Type)
	}
}
