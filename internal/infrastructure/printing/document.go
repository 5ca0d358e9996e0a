package printing

import (
	"errors"
	"strconv"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/person"
	"github.com/shopspring/decimal"
)

// Party is a buyer or seller as printed on the invoice
type Party struct {
	Name                 string
	IdentificationNumber string
	TaxNumber            string
	Street               string
	Zip                  string
	City                 string
	Country              person.Country
	AccountNumber        string
	BankCode             string
	IBAN                 string
	Telephone            string
	Email                string
}

// InvoiceDocument is the data the invoice template is executed with
type InvoiceDocument struct {
	InvoiceNumber int
	Issued        time.Time
	DueDate       time.Time
	Product       string
	Note          string
	Price         decimal.Decimal
	VAT           int
	VATAmount     decimal.Decimal
	Total         decimal.Decimal
	Seller        Party
	Buyer         Party
}

// NewInvoiceDocument builds the printable view of inv. Both parties must be loaded.
func NewInvoiceDocument(inv *invoice.Invoice) (*InvoiceDocument, error) {
	if inv == nil {
		return nil, errors.New("invoice is required")
	}
	if inv.Buyer == nil || inv.Seller == nil {
		return nil, errors.New("invoice parties are not loaded")
	}
	return &InvoiceDocument{
		InvoiceNumber: inv.InvoiceNumber,
		Issued:        inv.Issued,
		DueDate:       inv.DueDate,
		Product:       inv.Product,
		Note:          inv.Note,
		Price:         inv.Price,
		VAT:           inv.VAT,
		VATAmount:     inv.VATAmount(),
		Total:         inv.Total(),
		Seller:        partyOf(inv.Seller),
		Buyer:         partyOf(inv.Buyer),
	}, nil
}

// Title is used as the PDF document title
func (d *InvoiceDocument) Title() string {
	return "Invoice " + strconv.Itoa(d.InvoiceNumber)
}

func partyOf(p *person.Person) Party {
	return Party{
		Name:                 p.Name,
		IdentificationNumber: p.IdentificationNumber,
		TaxNumber:            p.TaxNumber,
		Street:               p.Street,
		Zip:                  p.Zip,
		City:                 p.City,
		Country:              p.Country,
		AccountNumber:        p.AccountNumber,
		BankCode:             p.BankCode,
		IBAN:                 p.IBAN,
		Telephone:            p.Telephone,
		Email:                p.Email,
	}
}
