// Package observability provides logging, metrics, and tracing.
package observability

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger builds the application slog logger: colorful tint output for
// development, JSON for everything else.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "development" || env == "test" {
		handler := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
		return slog.New(handler)
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}
