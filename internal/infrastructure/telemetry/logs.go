package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BridgeLogger tees base into the OTLP log pipeline. Entries below level are
// not exported. Without a provider base is returned unchanged.
func BridgeLogger(base *zap.Logger, provider *sdklog.LoggerProvider, serviceName string, level zapcore.Level) *zap.Logger {
	if provider == nil {
		return base
	}
	core := NewOTELCore(provider, serviceName, level)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
}

// NewOTELCore returns a core that exports entries at or above level
func NewOTELCore(provider *sdklog.LoggerProvider, serviceName string, level zapcore.Level) zapcore.Core {
	if provider == nil {
		return zapcore.NewNopCore()
	}
	return &levelCore{
		Core: otelzap.NewCore(serviceName, otelzap.WithLoggerProvider(provider)),
		min:  level,
	}
}

// levelCore filters a core that has no level of its own
type levelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *levelCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), min: c.min}
}
