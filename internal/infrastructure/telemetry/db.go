package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DBTracingConfig configures GORM instrumentation
type DBTracingConfig struct {
	DBName          string
	SlowQueryThresh time.Duration
	// WithVariables exposes bound query parameters on spans; dev only.
	WithVariables bool
}

type dbContextKey struct{}

// InstrumentDB installs the otelgorm plugin plus callbacks that tag slow and
// failed statements on the active span
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig) error {
	if cfg.DBName == "" {
		cfg.DBName = "postgresql"
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.WithVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm: %w", err)
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, dbContextKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markStatement(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	register := []struct {
		name string
		err  func() error
	}{
		{"create", func() error {
			if err := cb.Create().Before("gorm:create").Register("telemetry:before_create", before); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("telemetry:after_create", after)
		}},
		{"query", func() error {
			if err := cb.Query().Before("gorm:query").Register("telemetry:before_query", before); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("telemetry:after_query", after)
		}},
		{"update", func() error {
			if err := cb.Update().Before("gorm:update").Register("telemetry:before_update", before); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("telemetry:after_update", after)
		}},
		{"delete", func() error {
			if err := cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("telemetry:after_delete", after)
		}},
		{"row", func() error {
			if err := cb.Row().Before("gorm:row").Register("telemetry:before_row", before); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register("telemetry:after_row", after)
		}},
		{"raw", func() error {
			if err := cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("telemetry:after_raw", after)
		}},
	}
	for _, r := range register {
		if err := r.err(); err != nil {
			return fmt.Errorf("failed to register %s callbacks: %w", r.name, err)
		}
	}
	return nil
}

func markStatement(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}
	start, ok := ctx.Value(dbContextKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
	}
}

// RegisterPoolMetrics exports sql.DB pool statistics as observable gauges
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	conns, err := meter.Int64ObservableGauge("db_client_connections",
		metric.WithDescription("Database connections by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create db_client_connections: %w", err)
	}
	maxConns, err := meter.Int64ObservableGauge("db_client_connections_max",
		metric.WithDescription("Maximum open database connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create db_client_connections_max: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db_client_connections_wait_count",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create db_client_connections_wait_count: %w", err)
	}

	state := attribute.Key("state")
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(state.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(state.String("in_use")))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, maxConns, waits)
}
