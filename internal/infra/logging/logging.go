package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(
		slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}),
	)
}

// SetupJSON sets slog's default logger to use JSON output on stdout at the
// given level.
func SetupJSON(level slog.Level) {
	slog.SetDefault(New(os.Stdout, level))
}

// SetupStderr is SetupJSON for processes whose stdout carries data.
func SetupStderr(level slog.Level) {
	slog.SetDefault(New(os.Stderr, level))
}
