// Package log provides the minimal context-bound leveled logger used across
// the codec, in the shape of the teacher's core/log package (a Logger value
// threaded through a context.Context rather than a package-global).
package log

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Severity orders log messages from most to least verbose.
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "D"
	case Info:
		return "I"
	case Warning:
		return "W"
	case Error:
		return "E"
	case Fatal:
		return "F"
	default:
		return "?"
	}
}

// Logger writes leveled messages for a single tagged stream.
type Logger struct {
	tag    string
	min    Severity
	output func(line string)
}

type loggerKey struct{}

// New returns a Logger tagged with tag, writing to stderr, filtering anything
// below min.
func New(tag string, min Severity) *Logger {
	return &Logger{tag: tag, min: min, output: func(line string) {
		fmt.Fprintln(os.Stderr, line)
	}}
}

// Bind returns a new context carrying l, retrievable with From.
func Bind(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From returns the Logger bound to ctx, or a default stderr logger at Info
// level if none was bound.
func From(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

var defaultLogger = New("wirecodec", Info)

func (l *Logger) logf(sev Severity, format string, args ...interface{}) {
	if sev < l.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.output(fmt.Sprintf("%s %s [%s] %s", time.Now().Format("15:04:05.000"), sev, l.tag, msg))
}

// D logs a debug message.
func (l *Logger) D(format string, args ...interface{}) { l.logf(Debug, format, args...) }

// I logs an info message.
func (l *Logger) I(format string, args ...interface{}) { l.logf(Info, format, args...) }

// W logs a warning message.
func (l *Logger) W(format string, args ...interface{}) { l.logf(Warning, format, args...) }

// E logs an error message.
func (l *Logger) E(format string, args ...interface{}) { l.logf(Error, format, args...) }

// D logs a debug message against the logger bound to ctx.
func D(ctx context.Context, format string, args ...interface{}) { From(ctx).D(format, args...) }

// I logs an info message against the logger bound to ctx.
func I(ctx context.Context, format string, args ...interface{}) { From(ctx).I(format, args...) }

// W logs a warning message against the logger bound to ctx.
func W(ctx context.Context, format string, args ...interface{}) { From(ctx).W(format, args...) }

// E logs an error message against the logger bound to ctx.
func E(ctx context.Context, format string, args ...interface{}) { From(ctx).E(format, args...) }
