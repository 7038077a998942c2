package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"privchat/config"

	"github.com/lmittmann/tint"
)

// Logger wraps slog so the zero value is still usable in tests.
type Logger struct {
	sl *slog.Logger
}

func NewLogger(cfg *config.Config) (*Logger, error) {
	level, err := parseLevel(cfg.LoggerMode.Level)
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	if cfg.LoggerMode.Development {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return &Logger{sl: slog.New(handler)}, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Logger) base() *slog.Logger {
	if l.sl == nil {
		return slog.Default()
	}
	return l.sl
}

func (l Logger) Debug(msg string, kv ...any) { l.base().Debug(msg, kv...) }
func (l Logger) Info(msg string, kv ...any)  { l.base().Info(msg, kv...) }
func (l Logger) Warn(msg string, kv ...any)  { l.base().Warn(msg, kv...) }
func (l Logger) Error(msg string, kv ...any) { l.base().Error(msg, kv...) }

func (l Logger) Errorf(format string, args ...any) {
	l.base().Error(fmt.Sprintf(format, args...))
}
