package sink

import (
	"bufio"
	"fmt"
	"os"
	"soundcapture/internal/capturer"
)

// RawSink appends payloads back to back, with no framing.
type RawSink struct {
	f *os.File
	w *bufio.Writer
}

func NewRawSink(path string) (*RawSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create raw file: %w", err)
	}
	return &RawSink{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *RawSink) WriteFrame(f capturer.Frame) error {
	_, err := s.w.Write(f.Data)
	return err
}

func (s *RawSink) Close() error {
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
