// Package logger holds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	current = newText(os.Stderr, slog.LevelInfo)
)

func newText(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup replaces the logger with a stderr text logger at info level, or
// debug level when debug is set.
func Setup(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	l := newText(os.Stderr, level)
	Set(l)
	return l
}

// Set installs l. A nil logger is ignored.
func Set(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	current = l
	mu.Unlock()
}

func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
