package person

import (
	"context"

	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Lookup is the minimal projection used by pickers
type Lookup struct {
	ID                   int64
	Name                 string
	IdentificationNumber string
}

// Statistics is the revenue of one visible person over visible invoices
type Statistics struct {
	PersonID   int64
	PersonName string
	Revenue    decimal.Decimal
}

// Repository defines the interface for person persistence
type Repository interface {
	// FindByID finds a person row by id regardless of the hidden flag
	FindByID(ctx context.Context, id int64) (*Person, error)

	// FindByIdentificationNumber returns every row of the logical person,
	// hidden versions included
	FindByIdentificationNumber(ctx context.Context, identificationNumber string) ([]Person, error)

	// FindLookups returns a page of visible persons and the total count
	FindLookups(ctx context.Context, filter shared.Filter) ([]Lookup, int64, error)

	// FindAllLookups returns all visible persons ordered by name
	FindAllLookups(ctx context.Context) ([]Lookup, error)

	// FindLookupByID returns the lookup projection of any row
	FindLookupByID(ctx context.Context, id int64) (*Lookup, error)

	// Create inserts a new row and assigns its id
	Create(ctx context.Context, p *Person) error

	// Hide marks the row hidden. It reports false when no visible row
	// with that id exists.
	Hide(ctx context.Context, id int64) (bool, error)

	// Supersede hides current and inserts next in one transaction.
	// It fails with shared.ErrConcurrencyConflict if current was changed
	// since it was loaded.
	Supersede(ctx context.Context, current, next *Person) error

	// Statistics returns a page of revenue per visible person
	Statistics(ctx context.Context, filter shared.Filter) ([]Statistics, int64, error)
}
