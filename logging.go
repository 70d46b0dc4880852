package statekit

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// LogLevel ranks log events.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// LogEvent describes one diagnostic emitted by a manager.
type LogEvent struct {
	Level     LogLevel
	Message   string
	ManagerID string
	Fields    map[string]any
}

// Logger records manager diagnostics.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

// NopLogger discards every event.
type NopLogger struct{}

func (NopLogger) Log(LogEvent) {}

type stdLogger struct {
	out *log.Logger
	min LogLevel
}

// NewStdLogger writes events at or above min through l. A nil l uses the
// standard library's default logger.
func NewStdLogger(l *log.Logger, min LogLevel) Logger {
	if l == nil {
		l = log.Default()
	}
	return stdLogger{out: l, min: min}
}

func (s stdLogger) Log(event LogEvent) {
	if event.Level < s.min {
		return
	}
	var b strings.Builder
	b.WriteString("statekit ")
	b.WriteString(event.Level.String())
	b.WriteString(": ")
	b.WriteString(event.Message)
	if event.ManagerID != "" {
		b.WriteString(" manager=")
		b.WriteString(event.ManagerID)
	}
	keys := make([]string, 0, len(event.Fields))
	for key := range event.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, event.Fields[key])
	}
	s.out.Print(b.String())
}

func (m *Manager) warn(message string, fields map[string]any) {
	m.logger.Log(LogEvent{Level: LevelWarn, Message: message, ManagerID: m.id, Fields: fields})
}

func (m *Manager) debug(message string, fields map[string]any) {
	m.logger.Log(LogEvent{Level: LevelDebug, Message: message, ManagerID: m.id, Fields: fields})
}
