package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger: JSON on stdout, or human-readable text at
// debug level in development.
func New(development bool) *slog.Logger {
	return NewWithWriter(os.Stdout, development)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, development bool) *slog.Logger {
	if development {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", "govportal")
}
