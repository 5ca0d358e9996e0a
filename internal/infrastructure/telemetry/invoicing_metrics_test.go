package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type fakeCountProvider struct {
	counts map[telemetry.Entity]int64
	err    error
}

func (p fakeCountProvider) CountVisible(context.Context) (map[telemetry.Entity]int64, error) {
	return p.counts, p.err
}

// collectSum returns the int64 sum data point of name matching entity ("" for none)
func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name, entity string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(telemetry.AttrEntity)
				if v.AsString() == entity {
					return dp.Value
				}
			}
		}
	}
	t.Fatalf("metric %s{entity=%q} not found", name, entity)
	return 0
}

func newReaderMetrics(t *testing.T, provider telemetry.RecordCountProvider) (*telemetry.InvoicingMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	im, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{
		Meter:    mp.Meter("test"),
		Logger:   zap.NewNop(),
		Provider: provider,
	})
	require.NoError(t, err)
	return im, reader
}

func TestNewInvoicingMetrics(t *testing.T) {
	t.Run("creates instruments on a noop meter", func(t *testing.T) {
		im, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{
			Meter: noop.NewMeterProvider().Meter("test"),
		})
		require.NoError(t, err)
		assert.NotNil(t, im)
	})

	t.Run("rejects a nil meter", func(t *testing.T) {
		im, err := telemetry.NewInvoicingMetrics(telemetry.InvoicingMetricsConfig{})
		assert.Nil(t, im)
		assert.EqualError(t, err, "NewInvoicingMetrics: meter cannot be nil")
	})
}

func TestInvoicingMetrics_Counters(t *testing.T) {
	ctx := context.Background()
	im, reader := newReaderMetrics(t, nil)

	im.RecordPersonCreated(ctx)
	im.RecordPersonCreated(ctx)
	im.RecordInvoiceCreated(ctx, decimal.RequireFromString("1210.61"))
	im.RecordInvoiceCreated(ctx, decimal.RequireFromString("0.39"))
	im.RecordHidden(ctx, telemetry.EntityInvoice)
	im.RecordSuperseded(ctx, telemetry.EntityPerson)
	im.RecordSuperseded(ctx, telemetry.EntityPerson)

	assert.Equal(t, int64(2), collectSum(t, reader, "invoicing_persons_created_total", ""))
	assert.Equal(t, int64(2), collectSum(t, reader, "invoicing_invoices_created_total", ""))
	assert.Equal(t, int64(121100), collectSum(t, reader, "invoicing_invoice_amount_total", ""))
	assert.Equal(t, int64(1), collectSum(t, reader, "invoicing_records_hidden_total", "invoice"))
	assert.Equal(t, int64(2), collectSum(t, reader, "invoicing_versions_superseded_total", "person"))
}

func TestInvoicingMetrics_NilReceiver(t *testing.T) {
	var im *telemetry.InvoicingMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		im.RecordPersonCreated(ctx)
		im.RecordInvoiceCreated(ctx, decimal.NewFromInt(1))
		im.RecordHidden(ctx, telemetry.EntityPerson)
		im.RecordSuperseded(ctx, telemetry.EntityInvoice)
		im.StartPeriodicCollection(ctx, time.Second)
		im.Stop()
	})
}

func TestInvoicingMetrics_PeriodicCollection(t *testing.T) {
	t.Run("records visible counts per entity", func(t *testing.T) {
		im, reader := newReaderMetrics(t, fakeCountProvider{counts: map[telemetry.Entity]int64{
			telemetry.EntityPerson:  3,
			telemetry.EntityInvoice: 7,
		}})

		im.StartPeriodicCollection(context.Background(), time.Hour)
		defer im.Stop()

		assert.Eventually(t, func() bool {
			var rm metricdata.ResourceMetrics
			if err := reader.Collect(context.Background(), &rm); err != nil {
				return false
			}
			for _, sm := range rm.ScopeMetrics {
				for _, m := range sm.Metrics {
					if m.Name != "invoicing_visible_records" {
						continue
					}
					gauge, ok := m.Data.(metricdata.Gauge[int64])
					if !ok {
						return false
					}
					values := map[string]int64{}
					for _, dp := range gauge.DataPoints {
						v, _ := dp.Attributes.Value(attribute.Key("entity"))
						values[v.AsString()] = dp.Value
					}
					return values["person"] == 3 && values["invoice"] == 7
				}
			}
			return false
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("provider errors are logged not fatal", func(t *testing.T) {
		im, _ := newReaderMetrics(t, fakeCountProvider{err: errors.New("db down")})

		assert.NotPanics(t, func() {
			im.StartPeriodicCollection(context.Background(), time.Hour)
			im.Stop()
			im.Stop()
		})
	})
}
