package convert

import (
	"encoding/binary"
	"math"
)

// BytesToInt16 decodes interleaved S16LE bytes. A trailing odd byte is ignored.
func BytesToInt16(src []byte) []int16 {
	dst := make([]int16, len(src)/2)
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2 : i*2+2]))
	}
	return dst
}

// Int16ToBytes convert int16 sample to byte (Little Endian)
func Int16ToBytes(src []int16) []byte {
	dst := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:i*2+2], uint16(v))
	}
	return dst
}

func Float32ToInt16(src []float32) []int16 {
	dst := make([]int16, len(src))
	for i, v := range src {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		dst[i] = int16(v * 32767)
	}
	return dst
}

func Int16ToFloat32(src []int16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = float32(v) / 32767.0
	}
	return dst
}

// RMS returns the root mean square energy of a frame, 0 for an empty one.
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sumSquares float64
	for _, sample := range frame {
		sumSquares += float64(sample) * float64(sample)
	}
	return math.Sqrt(sumSquares / float64(len(frame)))
}

// ZeroCrossingRate returns the share of adjacent sample pairs that change sign.
func ZeroCrossingRate(frame []int16) float64 {
	if len(frame) < 2 {
		return 0
	}
	var zeroCrossings int
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			zeroCrossings++
		}
	}
	return float64(zeroCrossings) / float64(len(frame))
}
