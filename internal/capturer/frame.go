package capturer

import "time"

// Frame is one encoded unit of audio. PTS counts samples per channel at the
// codec sample rate since the listener started.
type Frame struct {
	Data     []byte
	PTS      int64
	Duration time.Duration
}

type State int

const (
	StateCreated State = iota
	StateListening
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateListening:
		return "listening"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of what a listener produced so far.
type Stats struct {
	Delivered uint64
	Dropped   uint64
	Skipped   uint64 // frames whose encoder output was empty
	Bytes     uint64
	LastPTS   int64
}
