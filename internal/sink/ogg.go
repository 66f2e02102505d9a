package sink

import (
	"fmt"
	"soundcapture/internal/capturer"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

const opusPayloadType = 111

// OggSink writes opus frames into an Ogg/Opus file. Each frame is wrapped in an
// RTP packet whose timestamp is the frame PTS, which oggwriter turns into the
// granule position.
type OggSink struct {
	w   *oggwriter.OggWriter
	seq uint16
}

func NewOggSink(path string, sampleRate uint32, channels uint16) (*OggSink, error) {
	w, err := oggwriter.New(path, sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create ogg file %s: %w", path, err)
	}
	return &OggSink{w: w}, nil
}

func (s *OggSink) WriteFrame(f capturer.Frame) error {
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: s.seq,
			Timestamp:      uint32(f.PTS),
		},
		Payload: f.Data,
	}
	s.seq++
	if err := s.w.WriteRTP(pkt); err != nil {
		return fmt.Errorf("failed to write ogg page: %w", err)
	}
	return nil
}

func (s *OggSink) Close() error {
	return s.w.Close()
}
