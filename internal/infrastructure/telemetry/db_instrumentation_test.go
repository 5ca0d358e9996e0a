package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type sampleRow struct {
	ID     uint `gorm:"primaryKey"`
	Name   string
	Hidden bool
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&sampleRow{}))
	return db
}

func newTracedDB(t *testing.T, cfg DBTracingConfig) (*gorm.DB, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	db := newSQLiteDB(t)
	plugin := NewDBTracingPlugin(cfg, zaptest.NewLogger(t))
	plugin.tracerProvider = tp
	require.NoError(t, plugin.Register(db))
	return db, recorder
}

func spanWithTable(spans []sdktrace.ReadOnlySpan, table string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		for _, kv := range s.Attributes() {
			if kv.Key == "db.sql.table" && kv.Value.AsString() == table {
				return s
			}
		}
	}
	return nil
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db, recorder := newTracedDB(t, DBTracingConfig{Enabled: false})
	require.NoError(t, db.Create(&sampleRow{Name: "Acme"}).Error)
	assert.Empty(t, recorder.Ended())
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	db, recorder := newTracedDB(t, DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Hour})

	require.NoError(t, db.WithContext(context.Background()).Create(&sampleRow{Name: "Acme"}).Error)

	span := spanWithTable(recorder.Ended(), "sample_rows")
	require.NotNil(t, span, "otelgorm span carries the table name")

	rows, ok := spanAttr(span, "db.rows_affected")
	require.True(t, ok)
	assert.Equal(t, int64(1), rows.AsInt64())

	_, slow := spanAttr(span, "db.slow_query")
	assert.False(t, slow)
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestDBTracingPlugin_SlowQuery(t *testing.T) {
	db, recorder := newTracedDB(t, DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond})

	var rows []sampleRow
	require.NoError(t, db.WithContext(context.Background()).Where("hidden = ?", false).Find(&rows).Error)

	span := spanWithTable(recorder.Ended(), "sample_rows")
	require.NotNil(t, span)
	slow, ok := spanAttr(span, "db.slow_query")
	require.True(t, ok)
	assert.True(t, slow.AsBool())

	var names []string
	for _, e := range span.Events() {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "slow_query")
}

func TestDBTracingPlugin_ErrorStatus(t *testing.T) {
	db, recorder := newTracedDB(t, DBTracingConfig{Enabled: true})

	err := db.WithContext(context.Background()).Table("missing_table").Create(map[string]any{"name": "x"}).Error
	require.Error(t, err)

	span := spanWithTable(recorder.Ended(), "missing_table")
	require.NotNil(t, span)
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestDBTracingPlugin_NotFoundIsNotAnError(t *testing.T) {
	db, recorder := newTracedDB(t, DBTracingConfig{Enabled: true})

	var row sampleRow
	err := db.WithContext(context.Background()).First(&row, 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	span := spanWithTable(recorder.Ended(), "sample_rows")
	require.NotNil(t, span)
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM invoice":                  "SELECT",
		"  insert into person (name) values (1)": "INSERT",
		"UPDATE invoice SET hidden = true":       "UPDATE",
		"delete from person":                     "DELETE",
		"WITH v AS (SELECT 1) SELECT * FROM v":   "SELECT",
		"VACUUM":                                 "OTHER",
		"":                                       "OTHER",
	}
	for sql, want := range tests {
		assert.Equal(t, want, detectOperationType(sql), sql)
	}
}

func TestDBMetricsPlugin_RecordsQueries(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := newMeterProviderWithReader(reader)

	db := newSQLiteDB(t)
	metrics, err := RegisterDBMetrics(db, mp, DBMetricsConfig{Enabled: true, SlowQueryThreshold: time.Hour}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, metrics)
	t.Cleanup(metrics.Stop)

	require.NoError(t, db.WithContext(ctx).Create(&sampleRow{Name: "Acme"}).Error)
	var rows []sampleRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	var count int64
	require.NoError(t, db.WithContext(ctx).Raw("SELECT COUNT(*) FROM sample_rows").Scan(&count).Error)
	_ = db.WithContext(ctx).Exec("INSERT INTO nowhere VALUES (1)").Error

	collected := collectMetrics(t, reader)

	total, ok := collected["db_query_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOp := map[string]int64{}
	for _, dp := range total.DataPoints {
		op, _ := dp.Attributes.Value(AttrDBOperation)
		byOp[op.AsString()] += dp.Value
	}
	assert.Equal(t, int64(2), byOp["INSERT"])
	assert.Equal(t, int64(2), byOp["SELECT"])

	errs, ok := collected["db_query_errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)

	_, slow := collected["db_slow_query_total"]
	assert.False(t, slow, "nothing crossed the threshold")
}

func TestDBMetrics_PoolStats(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := sdkmetric.NewManualReader()
	mp := newMeterProviderWithReader(reader)

	metrics, err := NewDBMetrics(mp.Meter("test"), DBMetricsConfig{PoolStatsInterval: time.Hour}, nil)
	require.NoError(t, err)

	metrics.StartPoolStatsCollection(ctx)
	metrics.Stop()

	sqlDB, err := newSQLiteDB(t).DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(4)

	metrics, err = NewDBMetrics(mp.Meter("test"), DBMetricsConfig{PoolStatsInterval: time.Hour}, nil)
	require.NoError(t, err)
	metrics.SetSQLDB(sqlDB)
	metrics.collectPoolStats(ctx)
	metrics.Stop()
	metrics.Stop()

	g, ok := collectMetrics(t, reader)["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, g.DataPoints, 1)
	assert.Equal(t, int64(4), g.DataPoints[0].Value)
}

func TestDBMetrics_SlowQueryByTable(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := newMeterProviderWithReader(reader)

	metrics, err := NewDBMetrics(mp.Meter("test"), DBMetricsConfig{SlowQueryThreshold: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	metrics.RecordQuery(ctx, "SELECT", "invoice", 50*time.Millisecond, nil)
	metrics.RecordQuery(ctx, "", "", 50*time.Millisecond, gorm.ErrRecordNotFound)

	collected := collectMetrics(t, reader)
	slow, ok := collected["db_slow_query_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	tables := map[string]int64{}
	for _, dp := range slow.DataPoints {
		v, _ := dp.Attributes.Value(AttrDBTable)
		tables[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"invoice": 1, "unknown": 1}, tables)

	_, hasErrors := collected["db_query_errors_total"]
	assert.False(t, hasErrors, "record not found is not a failure")
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := newSQLiteDB(t)

	m, err := RegisterDBMetrics(db, nil, DefaultDBMetricsConfig(), zaptest.NewLogger(t))
	assert.NoError(t, err)
	assert.Nil(t, m)

	reader := sdkmetric.NewManualReader()
	m, err = RegisterDBMetrics(db, newMeterProviderWithReader(reader), DBMetricsConfig{Enabled: false}, zaptest.NewLogger(t))
	assert.NoError(t, err)
	assert.Nil(t, m)
}
