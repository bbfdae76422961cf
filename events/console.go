package events

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleHook renders events as colored, timestamped lines for interactive
// use. Writes are serialized so concurrent runs interleave by line.
type ConsoleHook struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleHook writes to stdout.
func NewConsoleHook() *ConsoleHook {
	return &ConsoleHook{out: os.Stdout}
}

// NewConsoleHookWriter writes to the given writer instead of stdout.
func NewConsoleHookWriter(w io.Writer) *ConsoleHook {
	return &ConsoleHook{out: w}
}

func (c *ConsoleHook) line(stamp time.Time, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[%s] %s\n", stamp.Format("15:04:05"), body)
}

func (c *ConsoleHook) OnPhaseStarted(_ context.Context, e PhaseStarted) {
	body := fmt.Sprintf("%s %s", color.CyanString("[%d/%d]", int(e.Phase), PhaseCount), e.Phase)
	if e.Message != "" {
		body += ": " + e.Message
	}
	c.line(time.Time(e.Timestamp), body)
}

func (c *ConsoleHook) OnPhaseCompleted(_ context.Context, e PhaseCompleted) {
	body := fmt.Sprintf("%s %s done", color.GreenString("✓"), e.Phase)
	if e.Message != "" {
		body += ": " + e.Message
	}
	c.line(time.Time(e.Timestamp), body)
}

func (c *ConsoleHook) OnProgress(_ context.Context, e Progress) {
	c.line(time.Time(e.Timestamp), fmt.Sprintf("  %s (%d/%d)", e.Message, e.Current, e.Total))
}

func (c *ConsoleHook) OnWarning(_ context.Context, e Warning) {
	c.line(time.Time(e.Timestamp), fmt.Sprintf("%s %s: %s", color.YellowString("!"), e.Phase, e.Message))
}

func (c *ConsoleHook) OnError(_ context.Context, e Failure) {
	c.line(time.Time(e.Timestamp), fmt.Sprintf("%s %s failed: %v", color.RedString("✗"), e.Phase, e.Err))
}
