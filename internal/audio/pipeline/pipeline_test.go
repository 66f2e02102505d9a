package pipeline

import (
	"errors"
	"soundcapture/internal/audio/convert"
	"soundcapture/internal/audio/decoder"
	"soundcapture/internal/capturer"
	"testing"
	"time"
)

func TestAddOnPipe(t *testing.T) {
	q := make(chan struct{})
	in := make(chan int, 4)
	out := AddOnPipe(q, func(x int) (int, bool) { return x * 2, x%2 == 1 }, in, 4)

	in <- 1
	in <- 2
	in <- 3
	close(in)

	var got []int
	for v := range out {
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Errorf("expected [2 6], got %v", got)
	}
}

func TestAddOnPipeQuit(t *testing.T) {
	q := make(chan struct{})
	in := make(chan int)
	out := AddOnPipe(q, func(x int) (int, bool) { return x, true }, in, 1)
	close(q)

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected closed output")
		}
	case <-time.After(time.Second):
		t.Fatal("stage did not stop on quit")
	}
}

type fakePlayer struct {
	in     chan []int16
	closed bool
}

func (p *fakePlayer) Input() chan<- []int16 { return p.in }
func (p *fakePlayer) Close()                { p.closed = true }

type failingDecoder struct{}

func (failingDecoder) Decode([]byte) ([]int16, error) {
	return nil, errors.New("corrupt")
}

func TestMonitorDecodesToPlayer(t *testing.T) {
	player := &fakePlayer{in: make(chan []int16, 4)}
	m := NewMonitor(decoder.PCMDecoder{}, player, 4)

	if err := m.WriteFrame(capturer.Frame{Data: convert.Int16ToBytes([]int16{3, 4})}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = m.Close()

	select {
	case pcm := <-player.in:
		if len(pcm) != 2 || pcm[0] != 3 || pcm[1] != 4 {
			t.Errorf("unexpected pcm %v", pcm)
		}
	default:
		t.Fatal("player received nothing")
	}
	if !player.closed {
		t.Error("player should be closed with the monitor")
	}
	if err := m.WriteFrame(capturer.Frame{}); !errors.Is(err, ErrMonitorClosed) {
		t.Errorf("expected ErrMonitorClosed, got %v", err)
	}
}

func TestMonitorSkipsUndecodable(t *testing.T) {
	player := &fakePlayer{in: make(chan []int16, 4)}
	m := NewMonitor(failingDecoder{}, player, 4)
	_ = m.WriteFrame(capturer.Frame{Data: []byte{1}})
	_ = m.Close()

	if len(player.in) != 0 {
		t.Errorf("expected nothing played, got %d frames", len(player.in))
	}
}
