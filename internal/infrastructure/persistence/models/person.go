package models

import (
	"github.com/invoicing/backend/internal/domain/person"
)

// PersonModel is the persistence model for the Person domain entity.
type PersonModel struct {
	RecordModel
	Name                 string         `gorm:"type:varchar(255);not null"`
	IdentificationNumber string         `gorm:"type:varchar(50);not null;index"`
	TaxNumber            string         `gorm:"type:varchar(50)"`
	AccountNumber        string         `gorm:"type:varchar(50);not null"`
	BankCode             string         `gorm:"type:varchar(20);not null"`
	IBAN                 string         `gorm:"column:iban;type:varchar(50)"`
	Telephone            string         `gorm:"type:varchar(50);not null"`
	Email                string         `gorm:"type:varchar(255);not null"`
	Street               string         `gorm:"type:varchar(255);not null"`
	Zip                  string         `gorm:"type:varchar(20);not null"`
	City                 string         `gorm:"type:varchar(100);not null"`
	Country              person.Country `gorm:"type:varchar(20);not null"`
	Note                 string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PersonModel) TableName() string {
	return "person"
}

// ToDomain converts the persistence model to a domain Person entity.
func (m *PersonModel) ToDomain() *person.Person {
	return &person.Person{
		BaseRecord:           m.RecordModel.ToDomain(),
		Name:                 m.Name,
		IdentificationNumber: m.IdentificationNumber,
		TaxNumber:            m.TaxNumber,
		AccountNumber:        m.AccountNumber,
		BankCode:             m.BankCode,
		IBAN:                 m.IBAN,
		Telephone:            m.Telephone,
		Email:                m.Email,
		Street:               m.Street,
		Zip:                  m.Zip,
		City:                 m.City,
		Country:              m.Country,
		Note:                 m.Note,
	}
}

// FromDomain populates the persistence model from a domain Person entity.
func (m *PersonModel) FromDomain(p *person.Person) {
	m.FromDomainRecord(p.BaseRecord)
	m.Name = p.Name
	m.IdentificationNumber = p.IdentificationNumber
	m.TaxNumber = p.TaxNumber
	m.AccountNumber = p.AccountNumber
	m.BankCode = p.BankCode
	m.IBAN = p.IBAN
	m.Telephone = p.Telephone
	m.Email = p.Email
	m.Street = p.Street
	m.Zip = p.Zip
	m.City = p.City
	m.Country = p.Country
	m.Note = p.Note
}

// PersonModelFromDomain creates a new persistence model from a domain Person entity.
func PersonModelFromDomain(p *person.Person) *PersonModel {
	m := &PersonModel{}
	m.FromDomain(p)
	return m
}
