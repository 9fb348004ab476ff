// Package logging builds the zap loggers used across valuecore from the
// log section of the configuration.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/najoast/valuecore/config"
)

// ParseLevel maps a configured level to a zap level. Trace has no zap
// counterpart and logs at debug.
func ParseLevel(level config.LogLevel) (zapcore.Level, error) {
	switch config.LogLevel(strings.ToLower(string(level))) {
	case config.LogLevelTrace, config.LogLevelDebug:
		return zapcore.DebugLevel, nil
	case config.LogLevelInfo, "":
		return zapcore.InfoLevel, nil
	case config.LogLevelWarn:
		return zapcore.WarnLevel, nil
	case config.LogLevelError:
		return zapcore.ErrorLevel, nil
	case config.LogLevelFatal:
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", config.ErrInvalidLogLevel, level)
	}
}

// New builds a logger from cfg. The returned level can be changed at
// runtime, see LevelUpdater. Callers should defer logger.Sync().
func New(cfg config.LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	level := zap.NewAtomicLevelAt(lvl)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case config.LogFormatJSON:
		encoder = zapcore.NewJSONEncoder(encCfg)
	case config.LogFormatText, "":
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("%w: %q", config.ErrInvalidLogFormat, cfg.Format)
	}

	ws, err := openOutput(cfg)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	logger := zap.New(zapcore.NewCore(encoder, ws, level),
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if len(cfg.Fields) > 0 {
		fields := make([]zap.Field, 0, len(cfg.Fields))
		for k, v := range cfg.Fields {
			fields = append(fields, zap.Any(k, v))
		}
		logger = logger.With(fields...)
	}

	return logger, level, nil
}

func openOutput(cfg config.LogConfig) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	if cfg.Rotation.Enabled {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Output,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		}), nil
	}

	f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.Lock(f), nil
}

// LevelUpdater returns a config callback applying log level changes to
// level. Invalid levels are ignored; validation already rejected them.
func LevelUpdater(level zap.AtomicLevel) config.ConfigChangeCallback {
	return func(oldConfig, newConfig *config.Config) {
		if oldConfig != nil && oldConfig.Log.Level == newConfig.Log.Level {
			return
		}
		if lvl, err := ParseLevel(newConfig.Log.Level); err == nil {
			level.SetLevel(lvl)
		}
	}
}
