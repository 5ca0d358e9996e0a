package invoice

import (
	"context"
	"time"

	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Summary is the flattened list projection of an invoice
type Summary struct {
	ID                         int64
	InvoiceNumber              int
	Product                    string
	Price                      decimal.Decimal
	Issued                     time.Time
	BuyerName                  string
	SellerName                 string
	BuyerIdentificationNumber  string
	SellerIdentificationNumber string
}

// Statistics aggregates visible invoices
type Statistics struct {
	CurrentYearSum decimal.Decimal
	AllTimeSum     decimal.Decimal
	Count          int64
}

// RelatedPerson is a party of at least one visible invoice, unique per
// identification number
type RelatedPerson struct {
	IdentificationNumber string
	Name                 string
}

// Repository defines the interface for invoice persistence
type Repository interface {
	// FindByID loads any row with buyer and seller preloaded
	FindByID(ctx context.Context, id int64) (*Invoice, error)

	// Create inserts a new row and assigns its id
	Create(ctx context.Context, inv *Invoice) error

	// Hide marks the row hidden. It reports false when no visible row
	// with that id exists.
	Hide(ctx context.Context, id int64) (bool, error)

	// Supersede hides current and inserts next in one transaction
	Supersede(ctx context.Context, current, next *Invoice) error

	// FindSummaries returns a page of summaries matching criteria
	FindSummaries(ctx context.Context, criteria *Criteria, filter shared.Filter) ([]Summary, int64, error)

	// FindByBuyerIDs returns a page of visible invoices bought by any of ids
	FindByBuyerIDs(ctx context.Context, ids []int64, filter shared.Filter) ([]Invoice, int64, error)

	// FindBySellerIDs returns a page of visible invoices sold by any of ids
	FindBySellerIDs(ctx context.Context, ids []int64, filter shared.Filter) ([]Invoice, int64, error)

	// Statistics sums visible invoices. The current year sum covers
	// issued dates in [yearStart, yearEnd).
	Statistics(ctx context.Context, yearStart, yearEnd time.Time) (*Statistics, error)

	// FindRelatedPersons returns the parties of visible invoices
	FindRelatedPersons(ctx context.Context) ([]RelatedPerson, error)
}
