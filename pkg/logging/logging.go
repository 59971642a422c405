// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup(cfg.LogLevel)              // level name from config
//	logging.SetupWithLevel(slog.LevelDebug)  // explicit level override
//
// Level names: debug, info, warn, error (default: info).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures colored logging at the named level.
func Setup(level string) {
	SetupWithLevel(ParseLevel(level))
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(New(os.Stderr, level, isTerminal(os.Stderr)))
}

// New returns a tint logger writing to w. Color is only emitted when color
// is true, so output redirected to a file stays plain.
func New(w io.Writer, level slog.Level, color bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
		NoColor:    !color,
	}))
}

// ParseLevel maps a level name to a slog.Level. Unknown names are INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
