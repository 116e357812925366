package ui

import (
	"fmt"
	"io"
	"sync"
)

// Console writes operator-facing lines to one stream and machine-readable
// results to another, so a transaction hash on stdout stays parseable while
// progress goes to stderr.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	result  io.Writer
	animate bool
}

// NewConsole creates a console. animate enables the spinner and should only
// be set when out is a terminal.
func NewConsole(out, result io.Writer, animate bool) *Console {
	return &Console{out: out, result: result, animate: animate}
}

func (c *Console) line(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) Info(format string, args ...any)    { c.line(Info(fmt.Sprintf(format, args...))) }
func (c *Console) Success(format string, args ...any) { c.line(Success(fmt.Sprintf(format, args...))) }
func (c *Console) Warning(format string, args ...any) { c.line(Warn(fmt.Sprintf(format, args...))) }
func (c *Console) Error(format string, args ...any)   { c.line(Err(fmt.Sprintf(format, args...))) }

// Println writes an untagged line.
func (c *Console) Println(s string) { c.line(s) }

// Block writes a titled key/value block.
func (c *Console) Block(title string, pairs [][2]string) { c.line(KeyValueBlock(title, pairs)) }

// Result writes a bare machine-readable line to the result stream.
func (c *Console) Result(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.result, s)
}

// Writer exposes the operator stream for prompts.
func (c *Console) Writer() io.Writer { return c.out }

// Wait announces a blocking step. On a terminal it animates until the
// returned stop function is called.
func (c *Console) Wait(msg string) (stop func()) {
	if !c.animate {
		c.Info("%s", msg)
		return func() {}
	}
	s := NewSpinner(c.out, msg)
	s.Start()
	return s.Stop
}
