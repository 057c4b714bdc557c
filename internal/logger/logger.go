// Package logger provides the central tagged log shared by the emulator core
// and the front end.
//
// Entries are kept in a fixed size ring. Consecutive identical entries are
// folded into a single entry with a repeat count so that a component stuck in
// a loop cannot flush everything else out of the log.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// MaxEntries is the capacity of the central log.
const MaxEntries = 256

// Component tags used across the emulator.
const (
	TagCPU       = "CPU"
	TagPPU       = "PPU"
	TagAPU       = "APU"
	TagBus       = "BUS"
	TagCartridge = "CARTRIDGE"
	TagMapper    = "MAPPER"
	TagInput     = "INPUT"
	TagApp       = "APP"
	TagConfig    = "CONFIG"
	TagState     = "STATE"
)

// Entry is a single line in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Repeated  int
}

func (e Entry) String() string {
	s := strings.Builder{}
	fmt.Fprintf(&s, "[%s] %s", e.Tag, e.Detail)
	if e.Repeated > 0 {
		fmt.Fprintf(&s, " (repeat x%d)", e.Repeated+1)
	}
	s.WriteString("\n")
	return s.String()
}

// Logger is a bounded log of tagged entries. The package level functions
// operate on a central instance; tests create their own with New.
type Logger struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	echo       io.Writer
}

// New creates a logger holding at most maxEntries entries.
func New(maxEntries int) *Logger {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

var central = New(MaxEntries)

// Log adds an entry to the logger.
func (l *Logger) Log(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].Repeated++
		l.entries[n-1].Timestamp = now
	} else {
		l.entries = append(l.entries, Entry{Timestamp: now, Tag: tag, Detail: detail})
		if len(l.entries) > l.maxEntries {
			l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.maxEntries:]...)
		}
	}

	if l.echo != nil {
		io.WriteString(l.echo, l.entries[len(l.entries)-1].String())
	}
}

// Logf adds a formatted entry to the logger.
func (l *Logger) Logf(tag, format string, args ...any) {
	l.Log(tag, fmt.Sprintf(format, args...))
}

// SetEcho mirrors every new entry to w. A nil writer turns echoing off.
func (l *Logger) SetEcho(w io.Writer) {
	l.mu.Lock()
	l.echo = w
	l.mu.Unlock()
}

// Clear removes all entries.
func (l *Logger) Clear() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()
}

// Write writes every entry to w.
func (l *Logger) Write(w io.Writer) {
	l.Tail(w, l.maxEntries)
}

// Tail writes the most recent n entries to w.
func (l *Logger) Tail(w io.Writer, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	for _, e := range l.entries[len(l.entries)-n:] {
		io.WriteString(w, e.String())
	}
}

// Entries returns a copy of the current entries.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := make([]Entry, len(l.entries))
	copy(c, l.entries)
	return c
}

// Log adds an entry to the central logger.
func Log(tag, detail string) { central.Log(tag, detail) }

// Logf adds a formatted entry to the central logger.
func Logf(tag, format string, args ...any) { central.Logf(tag, format, args...) }

// SetEcho mirrors central log entries to w.
func SetEcho(w io.Writer) { central.SetEcho(w) }

// Clear empties the central logger.
func Clear() { central.Clear() }

// Write writes the central log to w.
func Write(w io.Writer) { central.Write(w) }

// Tail writes the last n central log entries to w.
func Tail(w io.Writer, n int) { central.Tail(w, n) }

// Entries returns a copy of the central log.
func Entries() []Entry { return central.Entries() }
