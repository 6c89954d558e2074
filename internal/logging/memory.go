package logging

import (
	"sync"
)

// MemoryLogger stores entries in memory for later inspection. Intended for
// tests and for surfacing engine activity in a UI after a run.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryLogger creates an empty in-memory sink.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Log appends the entry.
func (m *MemoryLogger) Log(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

// Entries returns a copy of all recorded entries in order.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ByLevel returns recorded entries at the given level.
func (m *MemoryLogger) ByLevel(l Level) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Level == l {
			out = append(out, e)
		}
	}
	return out
}

// ByComponent returns recorded entries for the given component.
func (m *MemoryLogger) ByComponent(component string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Component == component {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards all recorded entries.
func (m *MemoryLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}
