package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// DBTracingConfig holds database tracing configuration
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // keep bound values in db.statement; development only
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns tracing disabled with query variables hidden
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: defaultSlowQueryThreshold,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm plus callbacks that annotate its spans
// with table, row count, error status and slow-query events.
type DBTracingPlugin struct {
	config         DBTracingConfig
	logger         *zap.Logger
	tracerProvider trace.TracerProvider // nil uses the global provider
}

// NewDBTracingPlugin creates a new DBTracingPlugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQueryThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Register installs the plugin on db; a disabled config does nothing
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}

	// registered ahead of otelgorm so annotate runs before otelgorm ends the span
	if err := registerAroundCallbacks(db, "otel_annotate", markQueryStart, func(string) func(*gorm.DB) {
		return p.annotate
	}); err != nil {
		return err
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.tracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.tracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

type queryStartKey struct{}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func queryElapsed(ctx context.Context) (time.Duration, bool) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
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
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if elapsed, ok := queryElapsed(ctx); ok && elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
