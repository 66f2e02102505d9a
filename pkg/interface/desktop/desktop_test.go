package desktop

import (
	"bytes"
	"strings"
	"testing"
)

type fakePauser struct{ paused bool }

func (p *fakePauser) SetPaused(paused bool) { p.paused = paused }
func (p *fakePauser) Paused() bool          { return p.paused }

func TestConsoleMuteAndStop(t *testing.T) {
	var out bytes.Buffer
	stopped := 0
	mon := &fakePauser{}
	c, err := NewConsole(strings.NewReader("1\nx\n3\n2\n"), &out, func() { stopped++ }, mon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Run()

	if stopped != 1 {
		t.Errorf("expected stop once, got %d", stopped)
	}
	if !mon.paused {
		t.Error("monitor should stay muted: input after stop must be ignored")
	}
	for _, want := range []string{"Monitor muted", "Invalid choice", "Stopping capture"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output misses %q", want)
		}
	}
}

func TestConsoleWithoutMonitor(t *testing.T) {
	var out bytes.Buffer
	c, err := NewConsole(strings.NewReader("1\n"), &out, func() {}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Run()
	if !strings.Contains(out.String(), "Monitor is off") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestNewConsoleRejectsNil(t *testing.T) {
	if _, err := NewConsole(nil, &bytes.Buffer{}, func() {}, nil); err == nil {
		t.Error("expected error for nil input")
	}
}
