// Package logcapture buffers log lines emitted during one core-dump
// capture invocation so they can be embedded as a note in the resulting
// ELF file, giving Memfault visibility into what the handler itself saw
// while building the dump.
package logcapture

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Capacity bounds the number of captured lines per invocation (spec §4.3
// step 7: "a bounded synchronous channel of capacity 128").
const Capacity = 128

// Capture is a zerolog.Hook that mirrors every logged event into a bounded
// channel, dropping the oldest entry rather than blocking once full: a
// wedged log-capture channel must never stall the capture pipeline.
type Capture struct {
	lines chan string
}

// New returns an empty Capture ready to be attached to a logger via
// zerolog.Logger.Hook.
func New() *Capture {
	return &Capture{lines: make(chan string, Capacity)}
}

// Run implements zerolog.Hook.
func (c *Capture) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	line := fmt.Sprintf("[%s] %s", level, msg)
	select {
	case c.lines <- line:
	default:
		// Full: drop the oldest captured line to make room, then retry once.
		select {
		case <-c.lines:
		default:
		}
		select {
		case c.lines <- line:
		default:
		}
	}
}

// Drain returns every line captured so far, in emission order, and empties
// the buffer.
func (c *Capture) Drain() []string {
	lines := make([]string, 0, len(c.lines))
	for {
		select {
		case line := <-c.lines:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}
