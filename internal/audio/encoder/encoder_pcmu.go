package encoder

import (
	"soundcapture/internal/audio/config"
	"soundcapture/internal/audio/convert"
)

const muBias = 0x84
const muClip = 32635

// PCMUEncoder produces G.711 mu-law frames. Silent frames are gated out
// unless KeepSilence is set.
type PCMUEncoder struct {
	KeepSilence bool
}

// Encode encodes PCM int16 samples to mu-law bytes.
// error for compatibility with Encoder interface
func (c *PCMUEncoder) Encode(data []int16) ([]byte, error) {
	if !c.KeepSilence && isSilence(data) {
		return nil, nil
	}
	return EncodePCM16ToMuLaw(data), nil
}

func Linear16ToMuLaw(sample int16) byte {
	s := int32(sample)
	sign := byte(0)
	if s < 0 {
		sign = 0x80
		s = -s
	}
	if s > muClip {
		s = muClip
	}
	s += muBias
	exponent := uint8(7)
	mask := int32(0x4000)
	for (s&mask) == 0 && exponent > 0 {
		mask >>= 1
		exponent--
	}
	mantissa := byte((s >> (exponent + 3)) & 0x0F)
	return ^(sign | (exponent << 4) | mantissa)
}

func EncodePCM16ToMuLaw(pcm []int16) []byte {
	out := make([]byte, len(pcm))
	for i, s := range pcm {
		out[i] = Linear16ToMuLaw(s)
	}
	return out
}

// Silence is decided by energy. A low zero-crossing rate only gates frames
// that are already close to the threshold, so loud low tones pass.
func isSilence(frame []int16) bool {
	rms := convert.RMS(frame)
	if rms < config.EnergyThreshold {
		return true
	}
	return rms < 2*config.EnergyThreshold && convert.ZeroCrossingRate(frame) < 0.1
}
