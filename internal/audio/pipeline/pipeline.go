package pipeline

import (
	"github.com/rs/zerolog/log"
)

// AddOnPipe adds a processing function to the pipeline.
// q - quit channel to stop the processing
// f - processing function, its second result false drops the item
// in - input channel
// chanBuffer - buffer size for the output channel
// returns output channel, closed when in is closed or q fires
func AddOnPipe[X, Y any](q <-chan struct{}, f func(X) (Y, bool), in <-chan X, chanBuffer int) chan Y {
	out := make(chan Y, chanBuffer)
	go func() {
		defer close(out)
		for {
			select {
			case <-q:
				return
			case data, ok := <-in:
				if !ok {
					return
				}
				result, keep := f(data)
				if !keep {
					continue
				}
				select {
				case out <- result:
				default: // if out channel is full, drop the data
					log.Debug().Msg("Dropping data in pipeline stage")
				}
			}
		}
	}()
	return out
}
