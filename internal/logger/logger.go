// Package logger builds the zap logger. The terminal belongs to the panel, so
// logs go to a rotating file and only reach stderr when asked for.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	File       string // rotating log file; empty disables file output
	Level      string // debug, info, warn, error
	Console    io.Writer
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds a logger from opts. With no file and no console it returns a
// no-op logger.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(orDefault(opts.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	enabler := zap.NewAtomicLevelAt(level)

	var cores []zapcore.Core
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefaultInt(opts.MaxSizeMB, 10),
			MaxBackups: orDefaultInt(opts.MaxBackups, 3),
			MaxAge:     orDefaultInt(opts.MaxAgeDays, 28),
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, enabler))
	}
	if opts.Console != nil {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(opts.Console), enabler))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultInt(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
