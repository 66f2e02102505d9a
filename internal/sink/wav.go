package sink

import (
	"fmt"
	"os"
	"soundcapture/internal/audio/convert"
	"soundcapture/internal/capturer"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavFormatPCM = 1
)

// WavSink writes S16LE frames into a WAV file.
type WavSink struct {
	f      *os.File
	enc    *wav.Encoder
	format *audio.Format
}

func NewWavSink(path string, sampleRate uint32, channels uint16) (*WavSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav file: %w", err)
	}
	return &WavSink{
		f:   f,
		enc: wav.NewEncoder(f, int(sampleRate), wavBitDepth, int(channels), wavFormatPCM),
		format: &audio.Format{
			NumChannels: int(channels),
			SampleRate:  int(sampleRate),
		},
	}, nil
}

func (s *WavSink) WriteFrame(f capturer.Frame) error {
	samples := convert.BytesToInt16(f.Data)
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         s.format,
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := s.enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (s *WavSink) Close() error {
	encErr := s.enc.Close()
	fileErr := s.f.Close()
	if encErr != nil {
		return fmt.Errorf("failed to finalize wav: %w", encErr)
	}
	return fileErr
}
