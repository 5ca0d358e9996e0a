package models

import (
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice domain entity.
type InvoiceModel struct {
	RecordModel
	InvoiceNumber int             `gorm:"not null;index"`
	Issued        time.Time       `gorm:"type:date;not null;index"`
	DueDate       time.Time       `gorm:"type:date;not null"`
	Product       string          `gorm:"type:varchar(255);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	VAT           int             `gorm:"column:vat;not null"`
	Note          string          `gorm:"type:text"`
	BuyerID       int64           `gorm:"not null;index"`
	SellerID      int64           `gorm:"not null;index"`
	Buyer         *PersonModel    `gorm:"foreignKey:BuyerID"`
	Seller        *PersonModel    `gorm:"foreignKey:SellerID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoice"
}

// ToDomain converts the persistence model to a domain Invoice entity.
// Buyer and seller are set only when they were preloaded.
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		BaseRecord:    m.RecordModel.ToDomain(),
		InvoiceNumber: m.InvoiceNumber,
		Issued:        m.Issued,
		DueDate:       m.DueDate,
		Product:       m.Product,
		Price:         m.Price,
		VAT:           m.VAT,
		Note:          m.Note,
		BuyerID:       m.BuyerID,
		SellerID:      m.SellerID,
	}
	if m.Buyer != nil {
		inv.Buyer = m.Buyer.ToDomain()
	}
	if m.Seller != nil {
		inv.Seller = m.Seller.ToDomain()
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
// Associations are not copied; only the foreign keys are written.
func (m *InvoiceModel) FromDomain(inv *invoice.Invoice) {
	m.FromDomainRecord(inv.BaseRecord)
	m.InvoiceNumber = inv.InvoiceNumber
	m.Issued = inv.Issued
	m.DueDate = inv.DueDate
	m.Product = inv.Product
	m.Price = inv.Price
	m.VAT = inv.VAT
	m.Note = inv.Note
	m.BuyerID = inv.BuyerID
	m.SellerID = inv.SellerID
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceSummaryRow is the scan target of the summary join query
type InvoiceSummaryRow struct {
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

// ToDomain converts the row to the domain summary projection
func (r *InvoiceSummaryRow) ToDomain() invoice.Summary {
	return invoice.Summary{
		ID:                         r.ID,
		InvoiceNumber:              r.InvoiceNumber,
		Product:                    r.Product,
		Price:                      r.Price,
		Issued:                     r.Issued,
		BuyerName:                  r.BuyerName,
		SellerName:                 r.SellerName,
		BuyerIdentificationNumber:  r.BuyerIdentificationNumber,
		SellerIdentificationNumber: r.SellerIdentificationNumber,
	}
}
