package encoder

import "soundcapture/internal/audio/convert"

// PCMEncoder passes frames through as S16LE bytes.
type PCMEncoder struct{}

func (PCMEncoder) Encode(pcm []int16) ([]byte, error) {
	return convert.Int16ToBytes(pcm), nil
}
