package logging

import (
	"log/slog"
	"os"
)

// Init configures the default slog logger. The CLI defaults to errors only
// so the terminal UI stays clean; the server passes a different fallback.
func Init(fallback slog.Level) {
	level := fallback

	if l, ok := os.LookupEnv("LOG_LEVEL"); ok {
		switch l {
		case "dev", "development", "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn", "warning":
			level = slog.LevelWarn
		case "error", "production", "prod":
			level = slog.LevelError
		}
	}

	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}),
	)
	slog.SetDefault(logger)
}
