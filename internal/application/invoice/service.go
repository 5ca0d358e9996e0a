package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/person"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StatisticsCache stores invoice statistics per calendar year. Every
// invalidation bumps the generation; a Set carrying an older generation
// is dropped.
type StatisticsCache interface {
	GetInvoiceStatistics(ctx context.Context, year int) (*invoice.Statistics, bool, error)
	InvoiceStatisticsGeneration(ctx context.Context) (int64, error)
	SetInvoiceStatistics(ctx context.Context, year int, generation int64, stats *invoice.Statistics) error
	InvalidateInvoiceStatistics(ctx context.Context) error
}

// InvoiceService handles invoice-related business operations
type InvoiceService struct {
	repo     invoice.Repository
	persons  person.Repository
	cache    StatisticsCache
	metrics  *telemetry.InvoicingMetrics
	location *time.Location
	now      func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(repo invoice.Repository, persons person.Repository) *InvoiceService {
	return &InvoiceService{
		repo:     repo,
		persons:  persons,
		location: time.UTC,
		now:      time.Now,
	}
}

// SetStatisticsCache enables cache-aside reads of invoice statistics
func (s *InvoiceService) SetStatisticsCache(cache StatisticsCache) {
	s.cache = cache
}

// SetMetrics sets the domain metrics recorder
func (s *InvoiceService) SetMetrics(m *telemetry.InvoicingMetrics) {
	s.metrics = m
}

// SetLocation sets the zone in which the current year is determined
func (s *InvoiceService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// SetClock replaces time.Now
func (s *InvoiceService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a new visible invoice between two existing persons
func (s *InvoiceService) Create(ctx context.Context, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceNumber, req.InvoiceNumber))
	defer span.End()

	inv, err := s.build(ctx, req, nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordInvoiceCreated(ctx, inv.Price)
	s.invalidateStatistics(ctx)
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceID, inv.ID)
	telemetry.SetOK(span)

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// GetByID returns an invoice row with both parties, hidden or not
func (s *InvoiceService) GetByID(ctx context.Context, id int64) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Update replaces the invoice with a new row carrying req. The original is
// hidden in the same transaction and the parties are resolved again.
func (s *InvoiceService) Update(ctx context.Context, id int64, req InvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id))
	defer span.End()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if current.IsHidden() {
		err := shared.InvalidState("Invoice was deleted or superseded")
		telemetry.RecordError(span, err)
		return nil, err
	}

	next, err := s.build(ctx, req, current)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Supersede(ctx, current, next); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordSuperseded(ctx, telemetry.EntityInvoice)
	s.invalidateStatistics(ctx)
	telemetry.SetAttribute(span, telemetry.SpanAttrInvoiceSuccessorID, next.ID)
	telemetry.SetOK(span)

	response := ToInvoiceResponse(next)
	return &response, nil
}

// Delete hides the invoice. Removing an unknown or already hidden id is
// not an error.
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id))
	defer span.End()

	hidden, err := s.repo.Hide(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if hidden {
		s.metrics.RecordHidden(ctx, telemetry.EntityInvoice)
		s.invalidateStatistics(ctx)
	}
	telemetry.SetOK(span)
	return nil
}

// Summaries returns a page of visible invoices matching the filter
func (s *InvoiceService) Summaries(ctx context.Context, filter SummaryFilter) ([]SummaryResponse, int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "summaries")
	defer span.End()

	criteria, err := s.criteria(ctx, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}

	summaries, total, err := s.repo.FindSummaries(ctx, criteria, filter.Filter())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, 0, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrResultCount, total)
	return toSummaryResponses(summaries), total, nil
}

// ListBySellerIC returns a page of visible invoices sold by any version of
// the person with that identification number
func (s *InvoiceService) ListBySellerIC(ctx context.Context, ic string, filter ListFilter) ([]InvoiceResponse, int64, error) {
	return s.listByParty(ctx, ic, filter, s.repo.FindBySellerIDs)
}

// ListByBuyerIC returns a page of visible invoices bought by any version of
// the person with that identification number
func (s *InvoiceService) ListByBuyerIC(ctx context.Context, ic string, filter ListFilter) ([]InvoiceResponse, int64, error) {
	return s.listByParty(ctx, ic, filter, s.repo.FindByBuyerIDs)
}

type partyFinder func(ctx context.Context, ids []int64, filter shared.Filter) ([]invoice.Invoice, int64, error)

func (s *InvoiceService) listByParty(ctx context.Context, ic string, filter ListFilter, find partyFinder) ([]InvoiceResponse, int64, error) {
	ids, err := s.personIDs(ctx, ic)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []InvoiceResponse{}, 0, nil
	}

	invoices, total, err := find(ctx, ids, filter.Filter())
	if err != nil {
		return nil, 0, err
	}
	return toInvoiceResponses(invoices), total, nil
}

// Statistics returns sums and count of visible invoices. The current year
// is taken from the service clock in the configured location.
func (s *InvoiceService) Statistics(ctx context.Context) (*StatisticsResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "statistics")
	defer span.End()

	year := s.now().In(s.location).Year()

	// the generation is read before the query so that an edit committed
	// while the query runs keeps its result out of the cache
	cacheable := false
	var generation int64
	if s.cache != nil {
		cached, ok, err := s.cache.GetInvoiceStatistics(ctx, year)
		switch {
		case err != nil:
			logger.L(ctx).Warn("Failed to read cached invoice statistics", zap.Error(err))
		case ok:
			telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, true)
			return toStatisticsResponse(cached), nil
		}
		if generation, err = s.cache.InvoiceStatisticsGeneration(ctx); err != nil {
			logger.L(ctx).Warn("Failed to read invoice statistics generation", zap.Error(err))
		} else {
			cacheable = true
		}
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCacheHit, false)

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	stats, err := s.repo.Statistics(ctx, yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetInvoiceStatistics(ctx, year, generation, stats); err != nil {
			logger.L(ctx).Warn("Failed to cache invoice statistics", zap.Error(err))
		}
	}
	return toStatisticsResponse(stats), nil
}

// Load returns the invoice entity with both parties for document rendering
func (s *InvoiceService) Load(ctx context.Context, id int64) (*invoice.Invoice, error) {
	return s.repo.FindByID(ctx, id)
}

// build resolves both parties and creates a new invoice, or the successor
// of current when it is set
func (s *InvoiceService) build(ctx context.Context, req InvoiceRequest, current *invoice.Invoice) (*invoice.Invoice, error) {
	details, err := req.Details()
	if err != nil {
		return nil, err
	}
	buyer, err := s.resolveParty(ctx, "buyer", req.Buyer)
	if err != nil {
		return nil, err
	}
	seller, err := s.resolveParty(ctx, "seller", req.Seller)
	if err != nil {
		return nil, err
	}

	if current != nil {
		return current.Revise(details, buyer, seller)
	}
	return invoice.NewInvoice(details, buyer, seller)
}

func (s *InvoiceService) resolveParty(ctx context.Context, role string, ref *PartyReference) (*person.Person, error) {
	if ref == nil || ref.ID <= 0 {
		return nil, shared.Required(role)
	}
	p, err := s.persons.FindByID(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound(fmt.Sprintf("%s with id %d not found", capitalize(role), ref.ID))
		}
		return nil, err
	}
	return p, nil
}

// criteria builds the search from the optional filter predicates
func (s *InvoiceService) criteria(ctx context.Context, filter SummaryFilter) (*invoice.Criteria, error) {
	floor, ceiling, err := filter.priceBounds()
	if err != nil {
		return nil, err
	}

	criteria := invoice.NewCriteria()

	if ic := strings.TrimSpace(filter.BuyerID); ic != "" {
		ids, err := s.requirePersonIDs(ctx, ic)
		if err != nil {
			return nil, err
		}
		criteria.BuyerIn(ids...)
	}
	if filter.BuyerPersonID != nil {
		if err := s.requirePerson(ctx, *filter.BuyerPersonID); err != nil {
			return nil, err
		}
		criteria.BuyerIs(*filter.BuyerPersonID)
	}

	if ic := strings.TrimSpace(filter.SellerID); ic != "" {
		ids, err := s.requirePersonIDs(ctx, ic)
		if err != nil {
			return nil, err
		}
		criteria.SellerIn(ids...)
	}
	if filter.SellerPersonID != nil {
		if err := s.requirePerson(ctx, *filter.SellerPersonID); err != nil {
			return nil, err
		}
		criteria.SellerIs(*filter.SellerPersonID)
	}

	return criteria.
		ProductContains(filter.Product).
		PriceAtLeast(floor).
		PriceAtMost(ceiling), nil
}

// personIDs returns the ids of every row sharing the identification number
func (s *InvoiceService) personIDs(ctx context.Context, ic string) ([]int64, error) {
	rows, err := s.persons.FindByIdentificationNumber(ctx, strings.TrimSpace(ic))
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	return ids, nil
}

func (s *InvoiceService) requirePersonIDs(ctx context.Context, ic string) ([]int64, error) {
	ids, err := s.personIDs(ctx, ic)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, shared.NotFound("Person with identification number " + ic + " not found")
	}
	return ids, nil
}

func (s *InvoiceService) requirePerson(ctx context.Context, id int64) error {
	_, err := s.persons.FindByID(ctx, id)
	return err
}

// invalidateStatistics drops cached statistics; a failure is logged and
// the entry expires with its TTL
func (s *InvoiceService) invalidateStatistics(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateInvoiceStatistics(ctx); err != nil {
		logger.L(ctx).Warn("Failed to invalidate invoice statistics", zap.Error(err))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
