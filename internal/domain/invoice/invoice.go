// Package invoice holds the invoice aggregate, its read projections and
// the criteria used to search it.
package invoice

import (
	"strings"
	"time"

	"github.com/invoicing/backend/internal/domain/person"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Details are the user supplied attributes of an invoice
type Details struct {
	InvoiceNumber int
	Issued        time.Time
	DueDate       time.Time
	Product       string
	Price         decimal.Decimal
	VAT           int
	Note          string
}

// Invoice is one version of an invoice between a buyer and a seller
type Invoice struct {
	shared.BaseRecord
	InvoiceNumber int
	Issued        time.Time
	DueDate       time.Time
	Product       string
	Price         decimal.Decimal
	VAT           int
	Note          string
	BuyerID       int64
	SellerID      int64
	Buyer         *person.Person
	Seller        *person.Person
}

// NewInvoice creates a visible, not yet persisted invoice. Buyer and seller
// must already be resolved to stored persons.
func NewInvoice(d Details, buyer, seller *person.Person) (*Invoice, error) {
	if buyer == nil {
		return nil, shared.Required("buyer")
	}
	if seller == nil {
		return nil, shared.Required("seller")
	}
	d.Product = strings.TrimSpace(d.Product)
	if err := validate(d); err != nil {
		return nil, err
	}

	return &Invoice{
		BaseRecord:    shared.NewBaseRecord(),
		InvoiceNumber: d.InvoiceNumber,
		Issued:        truncateDay(d.Issued),
		DueDate:       truncateDay(d.DueDate),
		Product:       d.Product,
		Price:         d.Price,
		VAT:           d.VAT,
		Note:          d.Note,
		BuyerID:       buyer.ID,
		SellerID:      seller.ID,
		Buyer:         buyer,
		Seller:        seller,
	}, nil
}

// Revise builds the successor row for an edit. Nothing is carried over
// from the current version.
func (i *Invoice) Revise(d Details, buyer, seller *person.Person) (*Invoice, error) {
	return NewInvoice(d, buyer, seller)
}

// Hide soft-deletes the invoice
func (i *Invoice) Hide() {
	i.MarkHidden()
}

// Details returns the invoice's current attributes
func (i *Invoice) Details() Details {
	return Details{
		InvoiceNumber: i.InvoiceNumber,
		Issued:        i.Issued,
		DueDate:       i.DueDate,
		Product:       i.Product,
		Price:         i.Price,
		VAT:           i.VAT,
		Note:          i.Note,
	}
}

// VATAmount returns the VAT part computed from price and VAT percentage
func (i *Invoice) VATAmount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.VAT))).Div(decimal.NewFromInt(100)).Round(2)
}

// Total returns price including VAT
func (i *Invoice) Total() decimal.Decimal {
	return i.Price.Add(i.VATAmount())
}

func validate(d Details) error {
	if d.InvoiceNumber <= 0 {
		return shared.Required("invoiceNumber")
	}
	if d.Issued.IsZero() {
		return shared.Required("issued")
	}
	if d.DueDate.IsZero() {
		return shared.Required("dueDate")
	}
	if d.Product == "" {
		return shared.Required("product")
	}
	if d.Price.IsNegative() {
		return shared.Validation("Price cannot be negative")
	}
	if d.VAT < 0 || d.VAT > 100 {
		return shared.Validation("VAT must be between 0 and 100")
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
