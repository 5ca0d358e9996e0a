package person

import (
	"context"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/person"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/invoicing/backend/internal/infrastructure/logger"
	"github.com/invoicing/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RelatedPersonFinder lists the parties of visible invoices
type RelatedPersonFinder interface {
	FindRelatedPersons(ctx context.Context) ([]invoice.RelatedPerson, error)
}

// StatisticsInvalidator drops cached invoice statistics
type StatisticsInvalidator interface {
	InvalidateInvoiceStatistics(ctx context.Context) error
}

// PersonService handles person-related business operations
type PersonService struct {
	repo    person.Repository
	related RelatedPersonFinder
	stats   StatisticsInvalidator
	metrics *telemetry.InvoicingMetrics

	statsPageSize int
}

// NewPersonService creates a new PersonService
func NewPersonService(repo person.Repository, related RelatedPersonFinder) *PersonService {
	return &PersonService{
		repo:    repo,
		related: related,
	}
}

// SetStatisticsInvalidator sets the cache dropped after person edits and
// removals
func (s *PersonService) SetStatisticsInvalidator(stats StatisticsInvalidator) {
	s.stats = stats
}

// SetStatisticsPageSize overrides the default page size of Statistics
func (s *PersonService) SetStatisticsPageSize(n int) {
	s.statsPageSize = n
}

// SetMetrics sets the domain metrics recorder
func (s *PersonService) SetMetrics(m *telemetry.InvoicingMetrics) {
	s.metrics = m
}

// Create validates and stores a new visible person
func (s *PersonService) Create(ctx context.Context, req PersonRequest) (*PersonResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "create")
	defer span.End()

	p, err := person.NewPerson(req.Details())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordPersonCreated(ctx)
	telemetry.SetAttribute(span, telemetry.SpanAttrPersonID, p.ID)
	telemetry.SetOK(span)

	response := ToPersonResponse(p)
	return &response, nil
}

// GetByID returns a person row whether or not it is hidden
func (s *PersonService) GetByID(ctx context.Context, id int64) (*PersonResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToPersonResponse(p)
	return &response, nil
}

// Update replaces the person with a new row carrying req. The old row is
// hidden in the same transaction. The identification number must not change.
func (s *PersonService) Update(ctx context.Context, id int64, req PersonRequest) (*PersonResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "update",
		telemetry.WithAttribute(telemetry.SpanAttrPersonID, id))
	defer span.End()

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if current.IsHidden() {
		err := shared.InvalidState("Person was deleted or superseded")
		telemetry.RecordError(span, err)
		return nil, err
	}

	next, err := current.Revise(req.Details())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.repo.Supersede(ctx, current, next); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.RecordSuperseded(ctx, telemetry.EntityPerson)
	s.invalidateStatistics(ctx)
	telemetry.SetAttribute(span, telemetry.SpanAttrPersonSuccessorID, next.ID)
	telemetry.SetOK(span)

	response := ToPersonResponse(next)
	return &response, nil
}

// Delete hides the person. Removing an unknown or already hidden id is not
// an error.
func (s *PersonService) Delete(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrPersonID, id))
	defer span.End()

	hidden, err := s.repo.Hide(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if hidden {
		s.metrics.RecordHidden(ctx, telemetry.EntityPerson)
		s.invalidateStatistics(ctx)
	}
	telemetry.SetOK(span)
	return nil
}

// ListLookups returns a page of visible persons
func (s *PersonService) ListLookups(ctx context.Context, filter LookupListFilter) ([]LookupResponse, int64, error) {
	lookups, total, err := s.repo.FindLookups(ctx, filter.Filter())
	if err != nil {
		return nil, 0, err
	}
	return ToLookupResponses(lookups), total, nil
}

// AllLookups returns every visible person
func (s *PersonService) AllLookups(ctx context.Context) ([]LookupResponse, error) {
	lookups, err := s.repo.FindAllLookups(ctx)
	if err != nil {
		return nil, err
	}
	return ToLookupResponses(lookups), nil
}

// LookupByID returns the lookup projection of a row. Hidden rows are
// returned too, matching GetByID.
func (s *PersonService) LookupByID(ctx context.Context, id int64) (*LookupResponse, error) {
	lookup, err := s.repo.FindLookupByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToLookupResponse(lookup)
	return &response, nil
}

// StatisticsPage resolves the paging of a statistics request, applying the
// configured default page size
func (s *PersonService) StatisticsPage(filter StatisticsFilter) shared.Filter {
	f := filter.Filter()
	if filter.PageSize < 1 && s.statsPageSize > 0 {
		f.PageSize = s.statsPageSize
	}
	return f
}

// Statistics returns a page of revenue per visible person
func (s *PersonService) Statistics(ctx context.Context, filter StatisticsFilter) ([]StatisticsResponse, int64, error) {
	stats, total, err := s.repo.Statistics(ctx, s.StatisticsPage(filter))
	if err != nil {
		return nil, 0, err
	}

	out := make([]StatisticsResponse, len(stats))
	for i, st := range stats {
		out[i] = StatisticsResponse{
			PersonID:   st.PersonID,
			PersonName: st.PersonName,
			Revenue:    st.Revenue,
		}
	}
	return out, total, nil
}

// RelatedPersons returns the parties of visible invoices, one entry per
// identification number
func (s *PersonService) RelatedPersons(ctx context.Context) ([]RelatedPersonResponse, error) {
	related, err := s.related.FindRelatedPersons(ctx)
	if err != nil {
		return nil, err
	}
	return toRelatedPersonResponses(related), nil
}

// invalidateStatistics drops cached invoice statistics; a failure is logged
// and the entry expires with its TTL
func (s *PersonService) invalidateStatistics(ctx context.Context) {
	if s.stats == nil {
		return
	}
	if err := s.stats.InvalidateInvoiceStatistics(ctx); err != nil {
		logger.L(ctx).Warn("Failed to invalidate invoice statistics", zap.Error(err))
	}
}
