package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls GORM span creation
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bind variables in span statements
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm plus callbacks that tag each span with
// its table, row count, error status and a slow-query marker.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateSpan(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	// annotations must land before otelgorm ends the span
	steps := []struct {
		name string
		err  error
	}{
		{"create", cb.Create().Before("gorm:create").Register("storeops:trace_before_create", before)},
		{"query", cb.Query().Before("gorm:query").Register("storeops:trace_before_query", before)},
		{"update", cb.Update().Before("gorm:update").Register("storeops:trace_before_update", before)},
		{"delete", cb.Delete().Before("gorm:delete").Register("storeops:trace_before_delete", before)},
		{"row", cb.Row().Before("gorm:row").Register("storeops:trace_before_row", before)},
		{"raw", cb.Raw().Before("gorm:raw").Register("storeops:trace_before_raw", before)},
		{"create", cb.Create().After("gorm:create").Before("otel:after_create").Register("storeops:trace_after_create", after)},
		{"query", cb.Query().After("gorm:query").Before("otel:after_query").Register("storeops:trace_after_query", after)},
		{"update", cb.Update().After("gorm:update").Before("otel:after_update").Register("storeops:trace_after_update", after)},
		{"delete", cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("storeops:trace_after_delete", after)},
		{"row", cb.Row().After("gorm:row").Before("otel:after_row").Register("storeops:trace_after_row", after)},
		{"raw", cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("storeops:trace_after_raw", after)},
	}
	for _, s := range steps {
		if s.err != nil {
			return fmt.Errorf("register %s tracing callback: %w", s.name, s.err)
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
