package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Entity labels the record type a metric refers to.
type Entity string

const (
	EntityPerson  Entity = "person"
	EntityInvoice Entity = "invoice"
)

// AttrEntity is the attribute key carrying an Entity
var AttrEntity = attribute.Key("entity")

// RecordCountProvider reports how many visible rows each entity has.
type RecordCountProvider interface {
	CountVisible(ctx context.Context) (map[Entity]int64, error)
}

// InvoicingMetrics records domain activity of the invoicing service.
// A nil *InvoicingMetrics is valid and records nothing.
type InvoicingMetrics struct {
	logger *zap.Logger

	personsCreated     *Counter
	invoicesCreated    *Counter
	invoiceAmount      *Counter
	recordsHidden      *Counter
	versionsSuperseded *Counter

	visibleRecords *Gauge

	provider    RecordCountProvider
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// InvoicingMetricsConfig holds configuration for InvoicingMetrics.
type InvoicingMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	Provider RecordCountProvider
}

// NewInvoicingMetrics creates the counters and gauges on cfg.Meter.
func NewInvoicingMetrics(cfg InvoicingMetricsConfig) (*InvoicingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	im := &InvoicingMetrics{
		logger:   logger,
		provider: cfg.Provider,
		stopChan: make(chan struct{}),
	}

	counters := []struct {
		target           **Counter
		name, desc, unit string
	}{
		{&im.personsCreated, "invoicing_persons_created_total", "Total number of persons created", "{persons}"},
		{&im.invoicesCreated, "invoicing_invoices_created_total", "Total number of invoices created", "{invoices}"},
		{&im.invoiceAmount, "invoicing_invoice_amount_total", "Total invoiced amount in hundredths of the currency unit", "{cents}"},
		{&im.recordsHidden, "invoicing_records_hidden_total", "Total number of rows hidden by removal", "{records}"},
		{&im.versionsSuperseded, "invoicing_versions_superseded_total", "Total number of rows replaced by an edit", "{records}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	im.visibleRecords, err = NewGauge(cfg.Meter,
		"invoicing_visible_records",
		"Current number of visible rows",
		"{records}",
	)
	if err != nil {
		return nil, err
	}
	return im, nil
}

// RecordPersonCreated counts a newly added person
func (im *InvoicingMetrics) RecordPersonCreated(ctx context.Context) {
	if im == nil {
		return
	}
	im.personsCreated.Inc(ctx)
}

// RecordInvoiceCreated counts a newly added invoice and its price
func (im *InvoicingMetrics) RecordInvoiceCreated(ctx context.Context, price decimal.Decimal) {
	if im == nil {
		return
	}
	im.invoicesCreated.Inc(ctx)
	im.invoiceAmount.Add(ctx, price.Shift(2).IntPart())
}

// RecordHidden counts a removal that hid a row
func (im *InvoicingMetrics) RecordHidden(ctx context.Context, entity Entity) {
	if im == nil {
		return
	}
	im.recordsHidden.Inc(ctx, AttrEntity.String(string(entity)))
}

// RecordSuperseded counts an edit that replaced a row
func (im *InvoicingMetrics) RecordSuperseded(ctx context.Context, entity Entity) {
	if im == nil {
		return
	}
	im.versionsSuperseded.Inc(ctx, AttrEntity.String(string(entity)))
}

// StartPeriodicCollection samples visible row counts every interval
// (default 5 minutes) until Stop is called or ctx ends. Later calls are no-ops.
func (im *InvoicingMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if im == nil || im.provider == nil {
		return
	}
	im.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go im.runPeriodicCollection(ctx, interval)
	})
}

func (im *InvoicingMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	im.collect(ctx)
	for {
		select {
		case <-im.stopChan:
			im.logger.Info("Stopping periodic invoicing metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			im.collect(ctx)
		}
	}
}

func (im *InvoicingMetrics) collect(ctx context.Context) {
	counts, err := im.provider.CountVisible(ctx)
	if err != nil {
		im.logger.Warn("Failed to count visible records", zap.Error(err))
		return
	}
	for entity, count := range counts {
		im.visibleRecords.Record(ctx, count, AttrEntity.String(string(entity)))
	}
}

// Stop ends periodic collection
func (im *InvoicingMetrics) Stop() {
	if im == nil {
		return
	}
	im.stopOnce.Do(func() {
		close(im.stopChan)
	})
}

// ErrMeterNil is returned when a metrics constructor gets a nil meter.
var ErrMeterNil = &MetricsError{Op: "NewInvoicingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
