package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coretrack/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hello")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l, err := New(config.LogConfig{Level: "info", Output: filepath.Join(t.TempDir(), "x.log")}, core)
	require.NoError(t, err)

	l.Info("info only")
	l.Warn("to both")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "to both", logs.All()[0].Message)
}

func TestNew_BadInput(t *testing.T) {
	_, err := New(config.LogConfig{Level: "nope"})
	assert.Error(t, err)

	_, err = New(config.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}
