// Package logging builds the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// New creates a JSON-formatted slog logger writing to stdout. service is
// attached to every record.
func New(service string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h).With("service", service)
}
