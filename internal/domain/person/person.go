// Package person holds the buyer/seller aggregate. A logical person is a
// chain of rows that share an identification number; editing hides the
// current row and inserts its successor, so at most one row per chain is
// visible.
package person

import (
	"net/mail"
	"strings"

	"github.com/invoicing/backend/internal/domain/shared"
)

// Country is the fixed set of countries a person can be registered in
type Country string

const (
	CountryCzechia  Country = "CZECHIA"
	CountrySlovakia Country = "SLOVAKIA"
)

// Countries returns all supported countries
func Countries() []Country {
	return []Country{CountryCzechia, CountrySlovakia}
}

// IsValid reports whether c is one of the supported countries
func (c Country) IsValid() bool {
	switch c {
	case CountryCzechia, CountrySlovakia:
		return true
	}
	return false
}

// Details are the user supplied attributes of a person
type Details struct {
	Name                 string
	IdentificationNumber string
	TaxNumber            string
	AccountNumber        string
	BankCode             string
	IBAN                 string
	Telephone            string
	Email                string
	Street               string
	Zip                  string
	City                 string
	Country              Country
	Note                 string
}

// Person is one version of a buyer or seller
type Person struct {
	shared.BaseRecord
	Name                 string
	IdentificationNumber string
	TaxNumber            string
	AccountNumber        string
	BankCode             string
	IBAN                 string
	Telephone            string
	Email                string
	Street               string
	Zip                  string
	City                 string
	Country              Country
	Note                 string
}

// NewPerson creates a visible, not yet persisted person
func NewPerson(d Details) (*Person, error) {
	d = normalize(d)
	if err := validate(d); err != nil {
		return nil, err
	}

	p := &Person{BaseRecord: shared.NewBaseRecord()}
	p.apply(d)
	return p, nil
}

// Revise builds the successor row for an edit. The identification number
// is the identity of the logical person and may not change.
func (p *Person) Revise(d Details) (*Person, error) {
	if strings.TrimSpace(d.IdentificationNumber) != p.IdentificationNumber {
		return nil, shared.Validation("Identification number cannot be changed")
	}
	return NewPerson(d)
}

// Hide soft-deletes the person
func (p *Person) Hide() {
	p.MarkHidden()
}

// Details returns the person's current attributes
func (p *Person) Details() Details {
	return Details{
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
		Country:              p.Country,
		Note:                 p.Note,
	}
}

func (p *Person) apply(d Details) {
	p.Name = d.Name
	p.IdentificationNumber = d.IdentificationNumber
	p.TaxNumber = d.TaxNumber
	p.AccountNumber = d.AccountNumber
	p.BankCode = d.BankCode
	p.IBAN = d.IBAN
	p.Telephone = d.Telephone
	p.Email = d.Email
	p.Street = d.Street
	p.Zip = d.Zip
	p.City = d.City
	p.Country = d.Country
	p.Note = d.Note
}

func normalize(d Details) Details {
	d.Name = strings.TrimSpace(d.Name)
	d.IdentificationNumber = strings.TrimSpace(d.IdentificationNumber)
	d.TaxNumber = strings.TrimSpace(d.TaxNumber)
	d.AccountNumber = strings.TrimSpace(d.AccountNumber)
	d.BankCode = strings.TrimSpace(d.BankCode)
	d.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(d.IBAN), " ", ""))
	d.Telephone = strings.TrimSpace(d.Telephone)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Street = strings.TrimSpace(d.Street)
	d.Zip = strings.TrimSpace(d.Zip)
	d.City = strings.TrimSpace(d.City)
	d.Country = Country(strings.ToUpper(strings.TrimSpace(string(d.Country))))
	return d
}

func validate(d Details) error {
	required := []struct {
		field string
		value string
	}{
		{"name", d.Name},
		{"identificationNumber", d.IdentificationNumber},
		{"accountNumber", d.AccountNumber},
		{"bankCode", d.BankCode},
		{"telephone", d.Telephone},
		{"email", d.Email},
		{"street", d.Street},
		{"zip", d.Zip},
		{"city", d.City},
		{"country", string(d.Country)},
	}
	for _, r := range required {
		if r.value == "" {
			return shared.Required(r.field)
		}
	}

	if len(d.Name) > 255 {
		return shared.Validation("Name cannot exceed 255 characters")
	}
	if len(d.IdentificationNumber) > 50 {
		return shared.Validation("Identification number cannot exceed 50 characters")
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return shared.Validation("Invalid email format")
	}
	if !d.Country.IsValid() {
		return shared.Validation("Unsupported country: " + string(d.Country))
	}
	return nil
}
