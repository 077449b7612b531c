package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds SQL tracing settings
type DBTracingConfig struct {
	Enabled         bool
	DBSystem        string
	LogFullSQL      bool // include bound query variables in span statements
	SlowQueryThresh time.Duration
}

type queryStartKey struct{}

type gormRegister interface {
	Register(name string, fn func(*gorm.DB)) error
}

// RegisterGormTracing adds otelgorm spans to db plus row count, table and
// slow-query attributes on each statement span
func RegisterGormTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// statement hooks go in first so they run inside the otelgorm span
	hooks := &statementHooks{slowQueryThresh: cfg.SlowQueryThresh}
	cb := db.Callback()
	for _, r := range []struct {
		name   string
		hook   func(*gorm.DB)
		target gormRegister
	}{
		{"vitaguide:trace_start_create", hooks.before, cb.Create().Before("gorm:create")},
		{"vitaguide:trace_end_create", hooks.after, cb.Create().After("gorm:create")},
		{"vitaguide:trace_start_query", hooks.before, cb.Query().Before("gorm:query")},
		{"vitaguide:trace_end_query", hooks.after, cb.Query().After("gorm:query")},
		{"vitaguide:trace_start_update", hooks.before, cb.Update().Before("gorm:update")},
		{"vitaguide:trace_end_update", hooks.after, cb.Update().After("gorm:update")},
		{"vitaguide:trace_start_delete", hooks.before, cb.Delete().Before("gorm:delete")},
		{"vitaguide:trace_end_delete", hooks.after, cb.Delete().After("gorm:delete")},
		{"vitaguide:trace_start_row", hooks.before, cb.Row().Before("gorm:row")},
		{"vitaguide:trace_end_row", hooks.after, cb.Row().After("gorm:row")},
		{"vitaguide:trace_start_raw", hooks.before, cb.Raw().Before("gorm:raw")},
		{"vitaguide:trace_end_raw", hooks.after, cb.Raw().After("gorm:raw")},
	} {
		if err := r.target.Register(r.name, r.hook); err != nil {
			return err
		}
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

type statementHooks struct {
	slowQueryThresh time.Duration
}

func (h *statementHooks) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (h *statementHooks) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		RecordError(span, db.Error)
	}

	started, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok || h.slowQueryThresh <= 0 {
		return
	}
	if elapsed := time.Since(started); elapsed > h.slowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}
