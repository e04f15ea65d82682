package logger

import (
	"io"
	"sync"
)

// RingSink is an io.Writer that retains only the most recent entries written to
// it, oldest dropped first. It backs the /debug/logs endpoint so operators can
// inspect recent activity without shipping logs anywhere.
type RingSink struct {
	mu      sync.Mutex
	entries []string
	max     int
	next    io.Writer
}

// NewRingSink creates a sink retaining at most max entries. If next is
// non-nil, every write is also forwarded to it.
func NewRingSink(max int, next io.Writer) *RingSink {
	if max <= 0 {
		max = 1000
	}
	return &RingSink{
		entries: make([]string, 0, max),
		max:     max,
		next:    next,
	}
}

// Write implements io.Writer. Each call is treated as one log entry, matching
// how slog handlers emit exactly one line per record.
func (r *RingSink) Write(p []byte) (int, error) {
	r.mu.Lock()
	r.entries = append(r.entries, string(p))
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
	r.mu.Unlock()

	if r.next != nil {
		return r.next.Write(p)
	}
	return len(p), nil
}

// Entries returns a copy of the retained entries, oldest first.
func (r *RingSink) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of retained entries.
func (r *RingSink) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear drops all retained entries.
func (r *RingSink) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
}
