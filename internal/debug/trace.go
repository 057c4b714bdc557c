package debug

import (
	"bufio"
	"fmt"
	"io"

	"cyclenes/internal/bus"
	"cyclenes/internal/cpu"
)

// Tracer writes one nestest-style line per executed instruction.
type Tracer struct {
	w     *bufio.Writer
	limit int
	lines int
	err   error
}

// AttachTracer installs an instruction hook on b that logs up to limit
// instructions to w. limit <= 0 means no limit. Flush must be called before
// w is closed.
func AttachTracer(b *bus.Bus, w io.Writer, limit int) *Tracer {
	t := &Tracer{w: bufio.NewWriter(w), limit: limit}
	b.SetInstructionHook(t.hook)
	return t
}

func (t *Tracer) hook(c *cpu.CPU) {
	if t.err != nil || (t.limit > 0 && t.lines >= t.limit) {
		return
	}
	if _, err := fmt.Fprintln(t.w, c.Trace()); err != nil {
		t.err = err
		return
	}
	t.lines++
}

// Lines returns how many instructions were written
func (t *Tracer) Lines() int {
	return t.lines
}

// Done reports whether the limit was reached
func (t *Tracer) Done() bool {
	return t.limit > 0 && t.lines >= t.limit
}

// Flush writes buffered lines and returns the first write error
func (t *Tracer) Flush() error {
	if err := t.w.Flush(); t.err == nil {
		t.err = err
	}
	return t.err
}
