package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/najoast/valuecore/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   config.LogLevel
		want zapcore.Level
	}{
		{config.LogLevelTrace, zapcore.DebugLevel},
		{config.LogLevelDebug, zapcore.DebugLevel},
		{config.LogLevelInfo, zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{config.LogLevelError, zapcore.ErrorLevel},
		{config.LogLevelFatal, zapcore.FatalLevel},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "node.log")
	cfg := config.LogConfig{
		Level:  config.LogLevelInfo,
		Format: config.LogFormatJSON,
		Output: path,
		Fields: map[string]interface{}{"node": "n1"},
	}

	logger, level, err := New(cfg)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("registry sealed")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"registry sealed"`)
	assert.Contains(t, string(data), `"node":"n1"`)
	assert.NotContains(t, string(data), "hidden")
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}

func TestNewRotatedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotated.log")
	cfg := config.LogConfig{
		Level:    config.LogLevelDebug,
		Format:   config.LogFormatText,
		Output:   path,
		Rotation: config.LogRotationConfig{Enabled: true, MaxSize: 1, MaxBackups: 1},
	}

	logger, _, err := New(cfg)
	require.NoError(t, err)
	logger.Debug("decoded payload")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "decoded payload")
}

func TestNewErrors(t *testing.T) {
	_, _, err := New(config.LogConfig{Level: "loud"})
	assert.ErrorIs(t, err, config.ErrInvalidLogLevel)

	_, _, err = New(config.LogConfig{Level: config.LogLevelInfo, Format: "xml"})
	assert.ErrorIs(t, err, config.ErrInvalidLogFormat)
}

func TestLevelUpdater(t *testing.T) {
	_, level, err := New(config.LogConfig{Level: config.LogLevelInfo, Output: "stderr"})
	require.NoError(t, err)

	update := LevelUpdater(level)

	oldConfig := config.DefaultConfig()
	newConfig := config.DefaultConfig()
	newConfig.Log.Level = config.LogLevelDebug
	update(oldConfig, newConfig)
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	bad := config.DefaultConfig()
	bad.Log.Level = "loud"
	update(newConfig, bad)
	assert.Equal(t, zapcore.DebugLevel, level.Level())
}
