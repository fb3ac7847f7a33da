package logger

import (
	"log/slog"
	"strings"
)

func New(level string) *slog.Logger {
	return slog.New(NewCloudRunHandler(getSlogLevel(level)))
}

// ---- Helpers ----
func getSlogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
