package trace

import (
	"sync"
	"time"

	"github.com/roach88/rxcore/internal/event"
	"github.com/roach88/rxcore/internal/observer"
)

// Entry is one delivered event.
type Entry struct {
	Seq      int64  `json:"seq"`
	At       int64  `json:"at"` // virtual milliseconds
	Observer string `json:"observer"`
	Event    string `json:"event"`
}

// Log is an append-only, thread-safe record of delivered events.
type Log struct {
	mu      sync.Mutex
	now     func() time.Duration
	entries []Entry
}

// NewLog creates a Log that stamps entries with now().
// A nil now stamps every entry with 0.
func NewLog(now func() time.Duration) *Log {
	if now == nil {
		now = func() time.Duration { return 0 }
	}
	return &Log{now: now}
}

// Append records ev as delivered to the named observer.
func (l *Log) Append(name string, ev string) {
	at := l.now().Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Seq:      int64(len(l.entries) + 1),
		At:       at,
		Observer: name,
		Event:    ev,
	})
}

// Entries returns a copy of the record.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// For returns the events delivered to one observer, in order.
func (l *Log) For(name string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.Observer == name {
			out = append(out, e.Event)
		}
	}
	return out
}

// Observe returns an observer that appends everything it receives to l
// under name.
func Observe[T, E any](l *Log, name string) observer.Observer[T, E] {
	return observer.Funcs[T, E]{
		Next: func(v T) {
			l.Append(name, event.Next[T, E](v).String())
		},
		Terminal: func(t event.Terminal[E]) {
			l.Append(name, t.String())
		},
	}
}
