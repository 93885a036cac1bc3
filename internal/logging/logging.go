package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New initializes a new slog logger and sets it as the default.
// format is "text" (default, with source locations) or "json".
func New(format, level string) *slog.Logger {
	logger := slog.New(NewHandler(os.Stdout, format, level))
	slog.SetDefault(logger)
	return logger
}

// NewHandler builds the handler New installs, writing to w.
func NewHandler(w io.Writer, format, level string) slog.Handler {
	lvl := ParseLevel(level)
	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     lvl,
			AddSource: true,
		})
	}
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield Info.
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
