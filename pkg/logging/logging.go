// Package logging configures the process-wide slog logger.
//
// Usage:
//
//	logging.Setup("info", "text")   // colored output via tint
//	logging.Setup("debug", "json")  // JSON lines for log collectors
//
// Level strings are debug, info, warn and error; anything else is info.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default logger writing to stderr.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stderr, ParseLevel(level), format))
}

// New builds a logger for w. format "json" selects slog's JSON handler,
// anything else the tint text handler.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
		NoColor:    !isTerminal(w),
	}))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
