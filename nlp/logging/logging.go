package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"

	"github.com/pachpandenikhil/HMM/nlp/config"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("logging: %w", err)
	}
	return l, nil
}

// New builds a text logger writing to stderr and, when cfg.File is set, to a
// rotating log file. The returned closer releases the file.
func New(cfg config.Log) (*slog.Logger, io.Closer, error) {
	return newLogger(os.Stderr, cfg)
}

func newLogger(w io.Writer, cfg config.Log) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(w, fileLogger)
		closer = fileLogger
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer, nil
}

// Setup is New followed by slog.SetDefault.
func Setup(cfg config.Log) (*slog.Logger, io.Closer, error) {
	l, c, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(l)
	return l, c, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
