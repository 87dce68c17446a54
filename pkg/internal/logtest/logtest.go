// Package logtest records slog output so tests can assert on what was logged.
package logtest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Recorder is a slog.Handler that keeps every record in memory.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	attrs   []slog.Attr
}

var _ slog.Handler = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]Entry{}, attrs: nil}
}

// New returns a logger backed by a fresh Recorder.
func New() (*slog.Logger, *Recorder) {
	r := NewRecorder()
	return slog.New(r), r
}

func (r *Recorder) Enabled(context.Context, slog.Level) bool {
	return true
}

func (r *Recorder) Handle(_ context.Context, record slog.Record) error {
	e := Entry{Level: record.Level, Message: record.Message, Attrs: map[string]string{}}
	for _, a := range r.attrs {
		e.Attrs[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		e.Attrs[a.Key] = a.Value.String()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, e)
	return nil
}

func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Recorder{mu: r.mu, entries: r.entries, attrs: append(append([]slog.Attr(nil), r.attrs...), attrs...)}
}

// WithGroup is accepted but groups are flattened.
func (r *Recorder) WithGroup(string) slog.Handler {
	return r
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), *r.entries...)
}

// AtLevel returns the entries logged at exactly level.
func (r *Recorder) AtLevel(level slog.Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries have a message containing substr.
func (r *Recorder) Count(substr string) int {
	n := 0
	for _, e := range r.Entries() {
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

// Find returns the first entry whose message contains substr.
func (r *Recorder) Find(substr string) (Entry, bool) {
	for _, e := range r.Entries() {
		if strings.Contains(e.Message, substr) {
			return e, true
		}
	}
	return Entry{}, false
}

func (r *Recorder) String() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		fmt.Fprintf(&b, "%s %s %v\n", e.Level, e.Message, e.Attrs)
	}
	return b.String()
}
