// File path: internal/common/log.go
package common

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger     *slog.Logger
	loggerOnce sync.Once
)

// Logger returns the process-wide slog logger. The level is taken from the
// LOG_LEVEL environment variable and the output format from LOG_FORMAT
// ("json" switches to the JSON handler; anything else keeps text).
func Logger() *slog.Logger {
	loggerOnce.Do(func() {
		level := slog.LevelInfo
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
		opts := &slog.HandlerOptions{Level: level}
		var handler slog.Handler
		if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "json") {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stdout, opts)
		}
		logger = slog.New(handler)
	})
	return logger
}
