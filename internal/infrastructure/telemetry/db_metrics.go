package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds database metrics configuration
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

// DefaultDBMetricsConfig returns the defaults used by the server
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: defaultSlowQueryThreshold,
		PoolStatsInterval:  15 * time.Second,
	}
}

// DBMetrics records query counts and latency and samples the connection pool
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryErrors        *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config DBMetricsConfig
	logger *zap.Logger

	mu       sync.RWMutex
	sqlDB    *sql.DB
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the database instruments on meter
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{config: cfg, logger: logger, stopCh: make(chan struct{})}

	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections",
		"Number of connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum number of open connections", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Total number of database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryErrors, err = NewCounter(meter, "db_query_errors_total",
		"Total number of failed database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Total number of queries slower than the configured threshold", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// SetSQLDB sets the pool sampled by StartPoolStatsCollection
func (m *DBMetrics) SetSQLDB(sqlDB *sql.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sqlDB = sqlDB
}

// StartPoolStatsCollection samples pool statistics until Stop or ctx ends
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		m.logger.Warn("Cannot collect pool stats without a sql.DB")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		return
	}

	stats := sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool sampling and waits for the collector goroutine
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

// RecordQuery records one statement
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	if operation == "" {
		operation = "OTHER"
	}
	op := AttrDBOperation.String(operation)

	m.queryTotal.Inc(ctx, op)
	m.queryDuration.RecordDuration(ctx, duration, op)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		m.queryErrors.Inc(ctx, op)
	}
	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// DBMetricsPlugin is a gorm.Plugin that feeds DBMetrics
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin creates a new DBMetricsPlugin
func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

// Name implements gorm.Plugin
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	return registerAroundCallbacks(db, "db_metrics", markQueryStart, func(verb string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			ctx := tx.Statement.Context
			if ctx == nil {
				ctx = context.Background()
			}
			elapsed, _ := queryElapsed(ctx)
			p.metrics.RecordQuery(ctx, statementVerb(tx, verb), tx.Statement.Table, elapsed, tx.Error)
		}
	})
}

// RegisterDBMetrics installs DBMetricsPlugin on db and returns the metrics
// for lifecycle management. It returns nil when metrics are disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || mp == nil || !mp.IsEnabled() {
		return nil, nil
	}

	metrics, err := NewDBMetrics(mp.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(sqlDB)

	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		return nil, err
	}
	logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", metrics.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", metrics.config.PoolStatsInterval),
	)
	return metrics, nil
}
