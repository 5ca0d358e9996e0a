package main

import (
	"context"

	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/invoicing/backend/internal/infrastructure/persistence"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// telemetryProviders holds the OpenTelemetry providers and the profiler
// for the lifetime of the process
type telemetryProviders struct {
	tracer   *telemetry.TracerProvider
	meters   *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	log      *zap.Logger
}

func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryProviders, error) {
	tc := cfg.Telemetry
	t := &telemetryProviders{log: log}

	var err error
	t.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	t.meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		t.shutdown(ctx)
		return nil, err
	}

	t.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		t.shutdown(ctx)
		return nil, err
	}

	pc := cfg.Profiling
	t.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           pc.Enabled,
		ServerAddress:     pc.ServerAddress,
		ApplicationName:   pc.ApplicationName,
		BasicAuthUser:     pc.BasicAuthUser,
		BasicAuthPassword: pc.BasicAuthPassword,
	}, log)
	if err != nil {
		t.shutdown(ctx)
		return nil, err
	}
	if pc.Enabled && pc.SpanProfiles {
		t.tracer.EnableSpanProfiles()
	}

	return t, nil
}

// shutdown flushes and stops every provider; errors are logged
func (t *telemetryProviders) shutdown(ctx context.Context) {
	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			t.log.Error("Error stopping profiler", zap.Error(err))
		}
	}
	if t.meters != nil {
		if err := t.meters.Shutdown(ctx); err != nil {
			t.log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			t.log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}
	if t.logs != nil {
		if err := t.logs.Shutdown(ctx); err != nil {
			t.log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}
}

// instrumentDatabase registers query tracing and metrics on the gorm handle
func instrumentDatabase(ctx context.Context, db *persistence.Database, cfg *config.Config, t *telemetryProviders, log *zap.Logger) error {
	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		tracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(tracing, log).Register(db.DB); err != nil {
		return err
	}

	metricsCfg := telemetry.DefaultDBMetricsConfig()
	metricsCfg.Enabled = t.meters.IsEnabled()
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		metricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, t.meters, metricsCfg, log)
	if err != nil {
		return err
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
	}
	return nil
}
