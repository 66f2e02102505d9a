package encoder

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

const maxOpusPacket = 4000

type OpusEncoder struct {
	enc        *opus.Encoder
	sampleRate int
	channels   int
	dtx        bool
}

// NewOpusEncoder creates an opus encoder tuned for audio capture.
// bitrate <= 0 keeps the libopus default.
func NewOpusEncoder(sampleRate, channels, bitrate int, dtx bool) (*OpusEncoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	if bitrate > 0 {
		if err := enc.SetBitrate(bitrate); err != nil {
			return nil, fmt.Errorf("failed to set bitrate %d: %w", bitrate, err)
		}
	}

	if err := enc.SetDTX(dtx); err != nil {
		return nil, fmt.Errorf("failed to set DTX: %w", err)
	}

	return &OpusEncoder{
		enc:        enc,
		sampleRate: sampleRate,
		channels:   channels,
		dtx:        dtx,
	}, nil
}

// Encode encodes exactly one opus frame.
func (e *OpusEncoder) Encode(samples []int16) ([]byte, error) {
	opusData := make([]byte, maxOpusPacket)
	n, err := e.enc.Encode(samples, opusData)
	if err != nil {
		return nil, err
	}

	if e.dtx && n < 3 {
		// very small packet, likely DTX/no voice
		return nil, nil
	}

	packet := make([]byte, n)
	copy(packet, opusData[:n])

	return packet, nil
}
