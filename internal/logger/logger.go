// Package logger provides the structured logger shared by every component
// of the server.
package logger

import (
	"log/slog"
	"os"
)

// Logger embeds *slog.Logger, so call sites use the usual Debug, Info and
// Error methods with key-value attributes.
type Logger struct {
	*slog.Logger
}

// New builds a text logger on stdout. Records below the given slog level
// are discarded.
func New(level int) *Logger {
	opts := &slog.HandlerOptions{Level: slog.Level(level)}
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(os.Stdout, opts)),
	}
}

// Fatal logs at error level and terminates the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
