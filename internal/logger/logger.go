// Package logger holds the process-wide zerolog logger. The terminal is owned
// by the UI, so output goes to a file once Setup has run and is discarded
// before that.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Log is the global logger instance
	Log = zerolog.Nop()
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New builds a logger writing human readable lines to w
func New(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// Setup opens (or creates) the log file, points Log at it and returns a
// closer for the file
func Setup(path, level string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Log = New(f, level)
	return f, nil
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	Log = Log.Level(parseLevel(levelStr))
}

func parseLevel(levelStr string) zerolog.Level {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		return zerolog.InfoLevel
	}
	return level
}
