// Package logging builds the zap loggers used by the binaries. Library
// packages take a *zap.Logger and default to a no-op logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects encoder, level and output.
type Config struct {
	Level string // debug, info, warn or error
	Env   string // development or production
	// FilePath sends logs to a rotated file instead of Stderr.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
}

// New returns a logger for cfg. Stacktraces are attached above warn level.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Env) {
	case "production", "prod":
		encoder = productionEncoder()
	case "", "development", "dev":
		encoder = developmentEncoder()
	default:
		return nil, fmt.Errorf("logging: unknown environment %q", cfg.Env)
	}

	core := zapcore.NewCore(encoder, output(cfg), zap.NewAtomicLevelAt(level))
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.LevelEnablerFunc(func(lv zapcore.Level) bool {
			return lv > zap.WarnLevel
		})),
	), nil
}

// ParseLevel maps a level name onto a zap level. Empty means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel, nil
	case "", "info":
		return zap.InfoLevel, nil
	case "warn", "warning":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zap.InfoLevel, fmt.Errorf("logging: unknown level %q", level)
	}
}

func developmentEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func productionEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoder(func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	})
	encoderConfig.TimeKey = "@timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "log.level"
	return zapcore.NewJSONEncoder(encoderConfig)
}

func output(cfg Config) zapcore.WriteSyncer {
	if cfg.FilePath == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(fileWriter(cfg))
}

func fileWriter(cfg Config) io.Writer {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
	}
}
