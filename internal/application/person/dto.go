package person

import (
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/person"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Person DTOs
// =============================================================================

// PersonRequest is the body of both create and edit requests. An edit
// replaces every attribute, so there is no partial variant.
type PersonRequest struct {
	Name                 string `json:"name" binding:"required,max=255" example:"Acme s.r.o."`
	IdentificationNumber string `json:"identificationNumber" binding:"required,max=50" example:"12345678"`
	TaxNumber            string `json:"taxNumber" binding:"max=50" example:"CZ12345678"`
	AccountNumber        string `json:"accountNumber" binding:"required,max=50" example:"123456789"`
	BankCode             string `json:"bankCode" binding:"required,max=10" example:"0100"`
	IBAN                 string `json:"iban" binding:"max=34" example:"CZ6508000000192000145399"`
	Telephone            string `json:"telephone" binding:"required,max=50" example:"+420 777 123 456"`
	Email                string `json:"email" binding:"required,email,max=255" example:"billing@acme.cz"`
	Street               string `json:"street" binding:"required,max=255" example:"Národní 1"`
	Zip                  string `json:"zip" binding:"required,max=20" example:"110 00"`
	City                 string `json:"city" binding:"required,max=100" example:"Praha"`
	Country              string `json:"country" binding:"required,country" example:"CZECHIA" enums:"CZECHIA,SLOVAKIA"`
	Note                 string `json:"note" example:"Pays on time"`
}

// Details converts the request into domain attributes
func (r PersonRequest) Details() person.Details {
	return person.Details{
		Name:                 r.Name,
		IdentificationNumber: r.IdentificationNumber,
		TaxNumber:            r.TaxNumber,
		AccountNumber:        r.AccountNumber,
		BankCode:             r.BankCode,
		IBAN:                 r.IBAN,
		Telephone:            r.Telephone,
		Email:                r.Email,
		Street:               r.Street,
		Zip:                  r.Zip,
		City:                 r.City,
		Country:              person.Country(r.Country),
		Note:                 r.Note,
	}
}

// PersonResponse represents a person row in API responses
type PersonResponse struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	IdentificationNumber string    `json:"identificationNumber"`
	TaxNumber            string    `json:"taxNumber"`
	AccountNumber        string    `json:"accountNumber"`
	BankCode             string    `json:"bankCode"`
	IBAN                 string    `json:"iban"`
	Telephone            string    `json:"telephone"`
	Email                string    `json:"email"`
	Street               string    `json:"street"`
	Zip                  string    `json:"zip"`
	City                 string    `json:"city"`
	Country              string    `json:"country"`
	Note                 string    `json:"note"`
	Hidden               bool      `json:"hidden"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// ToPersonResponse converts a domain Person to PersonResponse
func ToPersonResponse(p *person.Person) PersonResponse {
	return PersonResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		IdentificationNumber: p.IdentificationNumber,
		TaxNumber:            p.TaxNumber,
		AccountNumber:        p.AccountNumber,
		BankCode:             p.BankCode,
		IBAN:                 p.IBAN,
		Telephone:            p.Telephone,
		Email:                p.Email,
		Street:               p.Street,
		Zip:                  p.Zip,
		City:                 p.City,
		Country:              string(p.Country),
		Note:                 p.Note,
		Hidden:               p.Hidden,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// =============================================================================
// Projections
// =============================================================================

// LookupResponse is the picker projection of a person
type LookupResponse struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	IdentificationNumber string `json:"identificationNumber"`
}

// ToLookupResponse converts a domain Lookup to LookupResponse
func ToLookupResponse(l *person.Lookup) LookupResponse {
	return LookupResponse{
		ID:                   l.ID,
		Name:                 l.Name,
		IdentificationNumber: l.IdentificationNumber,
	}
}

// ToLookupResponses converts a slice of lookups
func ToLookupResponses(lookups []person.Lookup) []LookupResponse {
	out := make([]LookupResponse, len(lookups))
	for i := range lookups {
		out[i] = ToLookupResponse(&lookups[i])
	}
	return out
}

// StatisticsResponse is the revenue of one person
type StatisticsResponse struct {
	PersonID   int64           `json:"personId"`
	PersonName string          `json:"personName"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// RelatedPersonResponse is a party of visible invoices. ID carries the
// identification number, not a row id.
type RelatedPersonResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toRelatedPersonResponses(related []invoice.RelatedPerson) []RelatedPersonResponse {
	out := make([]RelatedPersonResponse, len(related))
	for i, r := range related {
		out[i] = RelatedPersonResponse{ID: r.IdentificationNumber, Name: r.Name}
	}
	return out
}

// =============================================================================
// Filters
// =============================================================================

// LookupListFilter represents paging for the person lookup list
type LookupListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Filter converts to the repository filter, applying list defaults
func (f LookupListFilter) Filter() shared.Filter {
	return withDefaults(shared.Filter(f), 20, "id")
}

// StatisticsFilter represents paging for person statistics
type StatisticsFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Filter converts to the repository filter, applying statistics defaults
func (f StatisticsFilter) Filter() shared.Filter {
	return withDefaults(shared.Filter(f), 10, "name")
}

func withDefaults(f shared.Filter, pageSize int, orderBy string) shared.Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = pageSize
	}
	if f.OrderBy == "" {
		f.OrderBy = orderBy
	}
	if f.OrderDir == "" {
		f.OrderDir = "asc"
	}
	return f
}
