package decoder

import "soundcapture/internal/audio/convert"

// PCMDecoder reads S16LE payloads back into samples.
type PCMDecoder struct{}

func (PCMDecoder) Decode(encoded []byte) ([]int16, error) {
	return convert.BytesToInt16(encoded), nil
}
