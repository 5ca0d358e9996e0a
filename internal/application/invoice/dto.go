package invoice

import (
	"strings"
	"time"

	personapp "github.com/invoicing/backend/internal/application/person"
	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of invoice dates
const DateLayout = "2006-01-02"

// =============================================================================
// Invoice DTOs
// =============================================================================

// PartyReference points at a stored person row
type PartyReference struct {
	ID int64 `json:"id" example:"1"`
}

// InvoiceRequest is the body of both create and edit requests. Buyer and
// seller are checked by the service so that a missing party is reported
// as a required field rather than a malformed body.
type InvoiceRequest struct {
	InvoiceNumber int              `json:"invoiceNumber" binding:"required,min=1" example:"2024001"`
	Issued        string           `json:"issued" binding:"required,datetime=2006-01-02" example:"2024-03-01"`
	DueDate       string           `json:"dueDate" binding:"required,datetime=2006-01-02" example:"2024-03-15"`
	Product       string           `json:"product" binding:"required,max=255" example:"Consulting"`
	Price         *decimal.Decimal `json:"price" binding:"required" swaggertype:"string" example:"1500.50"`
	VAT           *int             `json:"vat" binding:"required,min=0,max=100" example:"21"`
	Note          string           `json:"note" example:"March retainer"`
	Buyer         *PartyReference  `json:"buyer"`
	Seller        *PartyReference  `json:"seller"`
}

// Details converts the request into domain attributes
func (r InvoiceRequest) Details() (invoice.Details, error) {
	issued, err := parseDate("issued", r.Issued)
	if err != nil {
		return invoice.Details{}, err
	}
	dueDate, err := parseDate("dueDate", r.DueDate)
	if err != nil {
		return invoice.Details{}, err
	}

	d := invoice.Details{
		InvoiceNumber: r.InvoiceNumber,
		Issued:        issued,
		DueDate:       dueDate,
		Product:       r.Product,
		Note:          r.Note,
	}
	if r.Price != nil {
		d.Price = *r.Price
	}
	if r.VAT != nil {
		d.VAT = *r.VAT
	}
	return d, nil
}

func parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, shared.Required(field)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, shared.Validation(field + " must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// InvoiceResponse represents an invoice row with both parties
type InvoiceResponse struct {
	ID            int64                    `json:"id"`
	InvoiceNumber int                      `json:"invoiceNumber"`
	Issued        string                   `json:"issued" example:"2024-03-01"`
	DueDate       string                   `json:"dueDate" example:"2024-03-15"`
	Product       string                   `json:"product"`
	Price         decimal.Decimal          `json:"price" swaggertype:"string"`
	VAT           int                      `json:"vat"`
	VATAmount     decimal.Decimal          `json:"vatAmount" swaggertype:"string"`
	Total         decimal.Decimal          `json:"total" swaggertype:"string"`
	Note          string                   `json:"note"`
	Buyer         personapp.PersonResponse `json:"buyer"`
	Seller        personapp.PersonResponse `json:"seller"`
	Hidden        bool                     `json:"hidden"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse. Parties
// that were not loaded are returned with only their id set.
func ToInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Issued:        inv.Issued.Format(DateLayout),
		DueDate:       inv.DueDate.Format(DateLayout),
		Product:       inv.Product,
		Price:         inv.Price,
		VAT:           inv.VAT,
		VATAmount:     inv.VATAmount(),
		Total:         inv.Total(),
		Note:          inv.Note,
		Hidden:        inv.Hidden,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Buyer:         personapp.PersonResponse{ID: inv.BuyerID},
		Seller:        personapp.PersonResponse{ID: inv.SellerID},
	}
	if inv.Buyer != nil {
		resp.Buyer = personapp.ToPersonResponse(inv.Buyer)
	}
	if inv.Seller != nil {
		resp.Seller = personapp.ToPersonResponse(inv.Seller)
	}
	return resp
}

func toInvoiceResponses(invoices []invoice.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}

// =============================================================================
// Projections
// =============================================================================

// SummaryResponse is the list row of an invoice
type SummaryResponse struct {
	ID                         int64           `json:"id"`
	InvoiceNumber              int             `json:"invoiceNumber"`
	Product                    string          `json:"product"`
	Price                      decimal.Decimal `json:"price" swaggertype:"string"`
	Issued                     string          `json:"issued" example:"2024-03-01"`
	BuyerName                  string          `json:"buyerName"`
	SellerName                 string          `json:"sellerName"`
	BuyerIdentificationNumber  string          `json:"buyerIdentificationNumber"`
	SellerIdentificationNumber string          `json:"sellerIdentificationNumber"`
}

func toSummaryResponses(summaries []invoice.Summary) []SummaryResponse {
	out := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = SummaryResponse{
			ID:                         s.ID,
			InvoiceNumber:              s.InvoiceNumber,
			Product:                    s.Product,
			Price:                      s.Price,
			Issued:                     s.Issued.Format(DateLayout),
			BuyerName:                  s.BuyerName,
			SellerName:                 s.SellerName,
			BuyerIdentificationNumber:  s.BuyerIdentificationNumber,
			SellerIdentificationNumber: s.SellerIdentificationNumber,
		}
	}
	return out
}

// StatisticsResponse aggregates visible invoices. InvoicesSum repeats
// InvoicesCount under the name older clients read.
type StatisticsResponse struct {
	CurrentYearSum decimal.Decimal `json:"currentYearSum" swaggertype:"string" example:"1500.50"`
	AllTimeSum     decimal.Decimal `json:"allTimeSum" swaggertype:"string" example:"2500.00"`
	InvoicesCount  int64           `json:"invoicesCount" example:"2"`
	InvoicesSum    int64           `json:"invoicesSum" example:"2"`
}

func toStatisticsResponse(st *invoice.Statistics) *StatisticsResponse {
	return &StatisticsResponse{
		CurrentYearSum: st.CurrentYearSum,
		AllTimeSum:     st.AllTimeSum,
		InvoicesCount:  st.Count,
		InvoicesSum:    st.Count,
	}
}

// =============================================================================
// Filters
// =============================================================================

// ListFilter represents paging for invoice lists
type ListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Filter converts to the repository filter, applying list defaults
func (f ListFilter) Filter() shared.Filter {
	out := shared.Filter(f)
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 {
		out.PageSize = 20
	}
	if out.OrderBy == "" {
		out.OrderBy = "id"
	}
	if out.OrderDir == "" {
		out.OrderDir = "asc"
	}
	return out
}

// SummaryFilter holds the optional predicates of the invoice summary list.
// BuyerID and SellerID are identification numbers; BuyerPersonID and
// SellerPersonID are row ids.
type SummaryFilter struct {
	ListFilter
	Limit          int    `form:"limit" binding:"omitempty,min=1,max=100"`
	BuyerID        string `form:"buyerId"`
	SellerID       string `form:"sellerId"`
	BuyerPersonID  *int64 `form:"buyerPersonId" binding:"omitempty,min=1"`
	SellerPersonID *int64 `form:"sellerPersonId" binding:"omitempty,min=1"`
	Product        string `form:"product"`
	MinPrice       string `form:"minPrice" binding:"omitempty,numeric"`
	MaxPrice       string `form:"maxPrice" binding:"omitempty,numeric"`
}

// Filter returns the paging filter. Limit takes precedence over page_size.
func (f SummaryFilter) Filter() shared.Filter {
	out := f.ListFilter.Filter()
	if f.Limit > 0 {
		out.PageSize = f.Limit
	}
	return out
}

// priceBounds parses the optional min and max price
func (f SummaryFilter) priceBounds() (floor, ceiling *decimal.Decimal, err error) {
	if floor, err = parseBound("minPrice", f.MinPrice); err != nil {
		return nil, nil, err
	}
	if ceiling, err = parseBound("maxPrice", f.MaxPrice); err != nil {
		return nil, nil, err
	}
	return floor, ceiling, nil
}

func parseBound(field, value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, shared.Validation(field + " must be a number")
	}
	return &d, nil
}
