package logging

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide slog logger: JSON to stdout, level taken
// from the LOG_LEVEL environment variable (debug, info, warn, error). An
// unset or unparseable value falls back to info.
func Setup() {
	level := slog.LevelInfo
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			level = slog.LevelInfo
		}
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
