package harness

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"soundcapture/internal/capturer"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

type fakeListener struct {
	mu         sync.Mutex
	frames     chan capturer.Frame
	started    chan struct{}
	startErr   error
	startCalls int
	closeCalls int
	stopErr    error
	stopped    bool
	events     []string
}

func newFakeListener() *fakeListener {
	return &fakeListener{
		frames:  make(chan capturer.Frame, 16),
		started: make(chan struct{}),
	}
}

func (l *fakeListener) StartListener() (<-chan capturer.Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.startCalls++
	if l.startErr != nil {
		return nil, l.startErr
	}
	l.events = append(l.events, "start")
	close(l.started)
	return l.frames, nil
}

func (l *fakeListener) CloseListener() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closeCalls++
	l.events = append(l.events, "stop")
	if !l.stopped {
		l.stopped = true
		close(l.frames)
	}
	return l.stopErr
}

// send reports false once the listener is stopped.
func (l *fakeListener) send(f capturer.Frame) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return false
	}
	l.frames <- f
	return true
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("log line is not json: %s", sc.Text())
		}
		out = append(out, m)
	}
	return out
}

type recordingSink struct {
	mu     sync.Mutex
	frames []capturer.Frame
	err    error
	closed int
}

func (s *recordingSink) WriteFrame(f capturer.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type runResult struct {
	summary Summary
	err     error
}

func runAsync(h *Harness, ctx context.Context) <-chan runResult {
	out := make(chan runResult, 1)
	go func() {
		s, err := h.Run(ctx)
		out <- runResult{s, err}
	}()
	return out
}

func waitResult(t *testing.T, res <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-res:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("harness did not stop")
		return runResult{}
	}
}

func TestRunStopsAfterDuration(t *testing.T) {
	mock := clock.NewMock()
	l := newFakeListener()
	h := New(l, WithClock(mock), WithLogger(zerolog.Nop()))

	res := runAsync(h, context.Background())
	<-l.started

	mock.Add(4999 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	l.mu.Lock()
	early := l.closeCalls
	l.mu.Unlock()
	if early != 0 {
		t.Fatalf("stopped before the duration elapsed")
	}

	mock.Add(time.Millisecond)
	r := waitResult(t, res)
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if l.startCalls != 1 || l.closeCalls != 1 {
		t.Errorf("expected one start and one stop, got %d and %d", l.startCalls, l.closeCalls)
	}
	if len(l.events) != 2 || l.events[0] != "start" || l.events[1] != "stop" {
		t.Errorf("unexpected call order %v", l.events)
	}
	if l.send(capturer.Frame{Data: []byte{1}}) {
		t.Error("frame delivered after stop")
	}
	if r.summary.Frames != 0 {
		t.Errorf("expected no frames, got %d", r.summary.Frames)
	}
	if r.summary.Elapsed != DefaultDuration {
		t.Errorf("expected elapsed %v, got %v", DefaultDuration, r.summary.Elapsed)
	}
}

func TestRunLogsEveryFrame(t *testing.T) {
	mock := clock.NewMock()
	l := newFakeListener()
	buf := &syncBuffer{}
	sink := &recordingSink{}
	h := New(l,
		WithClock(mock),
		WithLogger(zerolog.New(buf)),
		WithSinks(sink),
	)

	res := runAsync(h, context.Background())
	<-l.started

	l.send(capturer.Frame{Data: make([]byte, 120), PTS: 0})
	l.send(capturer.Frame{Data: make([]byte, 80), PTS: 960})
	l.send(capturer.Frame{Data: []byte{}, PTS: 2880})

	mock.Add(DefaultDuration)
	r := waitResult(t, res)
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}

	var frameLines int
	for _, line := range buf.lines(t) {
		if line["message"] != "frame" {
			continue
		}
		frameLines++
		size, ok := line["bytes"].(float64)
		if !ok || size < 0 {
			t.Errorf("frame line without valid bytes: %v", line)
		}
		if _, ok := line["pts"].(float64); !ok {
			t.Errorf("frame line without pts: %v", line)
		}
	}
	if frameLines != 3 {
		t.Errorf("expected 3 frame lines, got %d", frameLines)
	}

	if r.summary.Frames != 3 || r.summary.Bytes != 200 || r.summary.FirstPTS != 0 || r.summary.LastPTS != 2880 {
		t.Errorf("unexpected summary %+v", r.summary)
	}
	if len(sink.frames) != 3 || sink.closed != 1 {
		t.Errorf("sink got %d frames and %d closes", len(sink.frames), sink.closed)
	}
}

func TestRunStartFailure(t *testing.T) {
	l := newFakeListener()
	l.startErr = errors.New("engine missing")
	sink := &recordingSink{}
	h := New(l, WithClock(clock.NewMock()), WithLogger(zerolog.Nop()), WithSinks(sink))

	_, err := h.Run(context.Background())
	if !errors.Is(err, l.startErr) {
		t.Fatalf("expected start error, got %v", err)
	}
	if l.closeCalls != 0 {
		t.Errorf("stop must not be called when start failed")
	}
	if sink.closed != 1 {
		t.Errorf("sinks should be released after a failed start, closed %d times", sink.closed)
	}
}

func TestRunCancelled(t *testing.T) {
	l := newFakeListener()
	ctx, cancel := context.WithCancel(context.Background())
	h := New(l, WithClock(clock.NewMock()), WithLogger(zerolog.Nop()))

	res := runAsync(h, ctx)
	<-l.started
	cancel()

	r := waitResult(t, res)
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if l.closeCalls != 1 {
		t.Errorf("expected one stop, got %d", l.closeCalls)
	}
}

func TestSinkErrorsDoNotStopRun(t *testing.T) {
	mock := clock.NewMock()
	l := newFakeListener()
	sink := &recordingSink{err: errors.New("disk full")}
	h := New(l, WithClock(mock), WithLogger(zerolog.Nop()), WithSinks(sink), WithDuration(time.Second))

	res := runAsync(h, context.Background())
	<-l.started
	l.send(capturer.Frame{Data: []byte{1, 2}})
	l.send(capturer.Frame{Data: []byte{3}, PTS: 960})
	mock.Add(time.Second)

	r := waitResult(t, res)
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if r.summary.SinkErrors != 2 || r.summary.Frames != 2 {
		t.Errorf("unexpected summary %+v", r.summary)
	}
}

func TestRunStopErrorStillDrains(t *testing.T) {
	l := newFakeListener()
	l.stopErr = errors.New("device busy")
	mock := clock.NewMock()
	sink := &recordingSink{}
	h := New(l, WithClock(mock), WithLogger(zerolog.Nop()), WithSinks(sink))

	res := runAsync(h, context.Background())
	<-l.started
	l.send(capturer.Frame{Data: []byte{1}, PTS: 0})
	l.send(capturer.Frame{Data: []byte{2}, PTS: 160})
	mock.Add(DefaultDuration)

	r := waitResult(t, res)
	if !errors.Is(r.err, l.stopErr) {
		t.Fatalf("expected stop error, got %v", r.err)
	}
	if r.summary.Frames != 2 {
		t.Errorf("queued frames should be drained, got %d", r.summary.Frames)
	}
	if sink.closed != 1 {
		t.Errorf("sinks should be closed once, got %d", sink.closed)
	}
}
