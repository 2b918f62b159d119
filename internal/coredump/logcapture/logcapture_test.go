package logcapture

import (
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func discardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestCaptureDrainReturnsLinesInOrder(t *testing.T) {
	c := New()
	logger := discardLogger().Hook(c)
	logger.Info().Msg("first")
	logger.Warn().Msg("second")

	lines := c.Drain()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
	if lines[0] != "[info] first" || lines[1] != "[warn] second" {
		t.Errorf("unexpected lines: %v", lines)
	}
}

func TestCaptureDrainEmptiesTheBuffer(t *testing.T) {
	c := New()
	logger := discardLogger().Hook(c)
	logger.Info().Msg("only")
	c.Drain()
	if lines := c.Drain(); len(lines) != 0 {
		t.Errorf("expected an empty second drain, got %v", lines)
	}
}

func TestCaptureDropsOldestWhenFull(t *testing.T) {
	c := New()
	logger := discardLogger().Hook(c)
	for i := 0; i < Capacity+10; i++ {
		logger.Info().Msg(fmt.Sprintf("line-%d", i))
	}
	lines := c.Drain()
	if len(lines) != Capacity {
		t.Fatalf("expected buffer capped at %d, got %d", Capacity, len(lines))
	}
	if lines[len(lines)-1] != fmt.Sprintf("[info] line-%d", Capacity+9) {
		t.Errorf("expected the most recent line to survive, got %q", lines[len(lines)-1])
	}
}
