package sink

import (
	"fmt"
	"path/filepath"
	"soundcapture/internal/audio/config"
	"soundcapture/internal/capturer"
	"strings"
)

// Sink consumes delivered frames.
type Sink interface {
	WriteFrame(f capturer.Frame) error
	Close() error
}

// NewFileSink picks a container for the codec: Ogg for opus, WAV for pcm and a
// raw payload stream for everything else. An explicit ".raw" extension always
// selects the raw stream.
func NewFileSink(cfg config.AudioConfig, path string) (Sink, error) {
	if strings.EqualFold(filepath.Ext(path), ".raw") {
		return NewRawSink(path)
	}
	switch cfg.Type {
	case config.AudioCodecOpus:
		return NewOggSink(path, cfg.SampleRate, cfg.Channels)
	case config.AudioCodecPCM:
		return NewWavSink(path, cfg.SampleRate, cfg.Channels)
	case config.AudioCodecPCMU:
		return NewRawSink(path)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownCodec, cfg.Type)
	}
}
