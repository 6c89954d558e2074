package logging

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level badge styles for console rendering.
var (
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ConsoleLogger renders entries as single lines to a writer.
// Entries below MinLevel are dropped.
type ConsoleLogger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// NewConsoleLogger creates a console sink writing to out.
func NewConsoleLogger(out io.Writer, minLevel Level) *ConsoleLogger {
	return &ConsoleLogger{out: out, minLevel: minLevel}
}

// Log renders and writes one entry.
func (c *ConsoleLogger) Log(e Entry) {
	if e.Level < c.minLevel {
		return
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render(e.Time.Format("15:04:05.000")))
	b.WriteString(" ")
	b.WriteString(badge(e.Level))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(e.Component + "/" + e.Operation))
	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Duration > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf(" (%s)", e.Duration)))
	}

	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" %s=%v", k, e.Metadata[k])))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, b.String())
}

func badge(l Level) string {
	switch l {
	case LevelDebug:
		return debugStyle.Render("DBG")
	case LevelInfo:
		return infoStyle.Render("INF")
	case LevelWarn:
		return warnStyle.Render("WRN")
	case LevelError:
		return errorStyle.Render("ERR")
	}
	return "???"
}
