// Package diag sets up logging. The terminal belongs to the reader, so logs
// go to a file under the state directory.
package diag

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/metcalfc/narr/internal/state"
)

const logFileName = "narr.log"

// LogPath returns the log file location.
func LogPath() string {
	return filepath.Join(state.Dir(), logFileName)
}

// NewLogger returns a text logger on w. debug enables Debug records.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs a file logger as the slog default. The returned closer
// flushes and closes the file. If the file cannot be opened, logs are
// discarded and the error is returned.
func Setup(debug bool) (io.Closer, error) {
	path := LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		slog.SetDefault(NewLogger(io.Discard, debug))
		return nopCloser{}, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.SetDefault(NewLogger(io.Discard, debug))
		return nopCloser{}, err
	}
	slog.SetDefault(NewLogger(f, debug))
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
