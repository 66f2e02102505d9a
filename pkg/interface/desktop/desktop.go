package desktop

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Pauser mutes and unmutes the monitor output.
type Pauser interface {
	SetPaused(paused bool)
	Paused() bool
}

// Console is the interactive terminal menu of a running capture.
type Console struct {
	monitor Pauser // nil when monitoring is off
	stop    func()
	in      io.Reader
	out     io.Writer
}

const menu = "1. Mute monitor\n2. Unmute monitor\n3. Stop capture"

func NewConsole(in io.Reader, out io.Writer, stop func(), monitor Pauser) (*Console, error) {
	if in == nil || out == nil || stop == nil {
		return nil, fmt.Errorf("params cant be nil")
	}
	return &Console{monitor: monitor, stop: stop, in: in, out: out}, nil
}

// Run reads menu choices until the capture is stopped or input ends.
func (c *Console) Run() {
	fmt.Fprintln(c.out, "Capture running")
	fmt.Fprintln(c.out, "Menu:")
	fmt.Fprintln(c.out, menu)

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "Enter choice: ")
		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			c.setMonitorPaused(true)
		case "2":
			c.setMonitorPaused(false)
		case "3":
			fmt.Fprintln(c.out, "Stopping capture...")
			c.stop()
			return
		default:
			fmt.Fprintln(c.out, "Invalid choice, please try again.")
		}
	}
}

func (c *Console) setMonitorPaused(paused bool) {
	if c.monitor == nil {
		fmt.Fprintln(c.out, "Monitor is off")
		return
	}
	c.monitor.SetPaused(paused)
	if c.monitor.Paused() {
		fmt.Fprintln(c.out, "Monitor muted")
	} else {
		fmt.Fprintln(c.out, "Monitor unmuted")
	}
}
