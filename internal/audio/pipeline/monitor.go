package pipeline

import (
	"errors"
	"soundcapture/internal/audio/decoder"
	"soundcapture/internal/capturer"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrMonitorClosed = errors.New("monitor closed")

// Player accepts decoded PCM for output.
type Player interface {
	Input() chan<- []int16
	Close()
}

// Monitor plays delivered frames back while they are captured:
// frame -> decode -> player.
type Monitor struct {
	in      chan capturer.Frame
	quit    chan struct{}
	done    chan struct{}
	player  Player
	logger  zerolog.Logger
	dropped atomic.Uint64

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewMonitor(dec decoder.Decoder, player Player, buffer int) *Monitor {
	m := &Monitor{
		in:     make(chan capturer.Frame, buffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		player: player,
		logger: log.With().Str("component", "monitor").Logger(),
	}

	decode := func(f capturer.Frame) ([]int16, bool) {
		pcm, err := dec.Decode(f.Data)
		if err != nil {
			m.logger.Warn().Err(err).Int64("pts", f.PTS).Msg("Decode failed")
			return nil, false
		}
		return pcm, len(pcm) > 0
	}
	decoded := AddOnPipe(m.quit, decode, m.in, buffer)

	go func() {
		defer close(m.done)
		out := player.Input()
		for pcm := range decoded {
			select {
			case out <- pcm:
			default:
				m.dropped.Add(1)
			}
		}
	}()
	return m
}

// WriteFrame queues a frame for playback. A full queue drops the frame.
func (m *Monitor) WriteFrame(f capturer.Frame) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrMonitorClosed
	}
	select {
	case m.in <- f:
	default:
		m.dropped.Add(1)
	}
	return nil
}

// Dropped counts frames lost because the decoder or player fell behind.
func (m *Monitor) Dropped() uint64 {
	return m.dropped.Load()
}

func (m *Monitor) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.in)
		m.mu.Unlock()
		<-m.done
		m.player.Close()
		close(m.quit)
		if n := m.Dropped(); n > 0 {
			m.logger.Info().Uint64("dropped", n).Msg("Monitor dropped frames")
		}
	})
	return nil
}
