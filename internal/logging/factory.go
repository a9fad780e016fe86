package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap/zapcore"
)

const (
	BackendSlog     = "slog"
	BackendSlogJSON = "slog-json"
	BackendZap      = "zap"
)

// New builds a Logger for the named backend and level ("debug", "info",
// "warn", "error"). Slog backends write to w; zap writes to stderr.
func New(backend, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendSlog:
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return NewTextSlog(w, lvl), nil
	case BackendSlogJSON:
		lvl, err := parseSlogLevel(level)
		if err != nil {
			return nil, err
		}
		return NewJSONSlog(w, lvl), nil
	case BackendZap:
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		return NewProductionZap(lvl)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

func parseSlogLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
