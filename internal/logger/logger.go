package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/coop-bookkeeping/internal/config"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// NewLogger builds the JSON logger every component receives. Unknown level
// names fall back to info rather than failing startup.
func NewLogger(cfg *config.Config) *slog.Logger {
	level, ok := levels[strings.ToLower(cfg.Logging.Level)]
	if !ok {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}))

	logger.Info("logger initialized", "level", level)
	return logger
}
