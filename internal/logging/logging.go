package logging

import (
	"time"
)

// Level indicates the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the canonical lowercase name for the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "unknown"
}

// Entry is a single structured log record. Component and Operation identify
// where the entry came from; Metadata carries free-form key/value detail;
// Duration is zero unless the entry describes a timed operation.
type Entry struct {
	Time      time.Time
	Level     Level
	Component string
	Operation string
	Message   string
	Metadata  map[string]any
	Duration  time.Duration
}

// Logger is the sink interface the engine logs through. Implementations must
// be safe for concurrent use.
type Logger interface {
	Log(e Entry)
}

// Emit fills in the timestamp and sends an entry to the logger.
// A nil logger discards the entry.
func Emit(l Logger, level Level, component, operation, msg string, meta map[string]any) {
	if l == nil {
		return
	}
	l.Log(Entry{
		Time:      time.Now(),
		Level:     level,
		Component: component,
		Operation: operation,
		Message:   msg,
		Metadata:  meta,
	})
}

// EmitTimed is Emit with an operation duration attached.
func EmitTimed(l Logger, level Level, component, operation, msg string, meta map[string]any, d time.Duration) {
	if l == nil {
		return
	}
	l.Log(Entry{
		Time:      time.Now(),
		Level:     level,
		Component: component,
		Operation: operation,
		Message:   msg,
		Metadata:  meta,
		Duration:  d,
	})
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Log(Entry) {}
