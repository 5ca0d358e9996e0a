package printing

import (
	"context"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/domain/person"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func testInvoice() *invoice.Invoice {
	seller := &person.Person{
		Name:                 "Acme s.r.o.",
		IdentificationNumber: "12345678",
		TaxNumber:            "CZ12345678",
		AccountNumber:        "1234567890",
		BankCode:             "0800",
		Email:                "billing@acme.cz",
		Street:               "Dlouha 1",
		Zip:                  "11000",
		City:                 "Praha",
		Country:              person.CountryCzechia,
	}
	buyer := &person.Person{
		Name:                 "Beta a.s.",
		IdentificationNumber: "87654321",
		AccountNumber:        "9876543210",
		BankCode:             "0100",
		IBAN:                 "SK3112000000198742637541",
		Street:               "Hlavna 5",
		Zip:                  "81101",
		City:                 "Bratislava",
		Country:              person.CountrySlovakia,
	}
	return &invoice.Invoice{
		InvoiceNumber: 2024001,
		Issued:        time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, time.March, 19, 0, 0, 0, 0, time.UTC),
		Product:       "Consulting",
		Price:         decimal.RequireFromString("1500.50"),
		VAT:           21,
		Note:          "Thank you",
		Seller:        seller,
		Buyer:         buyer,
	}
}

func TestNewInvoiceDocument(t *testing.T) {
	doc, err := NewInvoiceDocument(testInvoice())
	require.NoError(t, err)

	assert.Equal(t, "Invoice 2024001", doc.Title())
	assert.True(t, decimal.RequireFromString("315.11").Equal(doc.VATAmount))
	assert.True(t, decimal.RequireFromString("1815.61").Equal(doc.Total))
	assert.Equal(t, "Acme s.r.o.", doc.Seller.Name)
	assert.Equal(t, "SK3112000000198742637541", doc.Buyer.IBAN)
}

func TestNewInvoiceDocument_RequiresParties(t *testing.T) {
	_, err := NewInvoiceDocument(nil)
	assert.Error(t, err)

	inv := testInvoice()
	inv.Buyer = nil
	_, err = NewInvoiceDocument(inv)
	assert.Error(t, err)
}

func TestTemplateEngine_Options(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	assert.Equal(t, language.English, engine.Locale())
	assert.Equal(t, "CZK", engine.currency)

	engine, err = NewTemplateEngine(WithLocale("cs"), WithCurrency(" eur "))
	require.NoError(t, err)
	assert.Equal(t, "cs", engine.Locale().String())
	assert.Equal(t, "EUR", engine.currency)

	engine, err = NewTemplateEngine(WithLocale("not a locale"))
	require.NoError(t, err)
	assert.Equal(t, language.English, engine.Locale())
}

func TestTemplateEngine_Formatting(t *testing.T) {
	en, err := NewTemplateEngine()
	require.NoError(t, err)
	cs, err := NewTemplateEngine(WithLocale("cs"))
	require.NoError(t, err)

	amount := decimal.RequireFromString("1815.605")
	day := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "1,815.61 CZK", en.formatMoney(amount))
	assert.Contains(t, cs.formatMoney(amount), "815,61 CZK")
	assert.Equal(t, "21%", en.formatPercent(21))
	assert.Equal(t, "2024-03-05", en.formatDate(day))
	assert.Equal(t, "5. 3. 2024", cs.formatDate(day))
	assert.Empty(t, en.formatDate(time.Time{}))
	assert.Equal(t, "Czechia", formatCountry(person.CountryCzechia))
}

func TestTemplateEngine_Render(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	doc, err := NewInvoiceDocument(testInvoice())
	require.NoError(t, err)

	html, err := engine.Render(context.Background(), doc)
	require.NoError(t, err)

	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, "<title>Invoice 2024001</title>")
	assert.Contains(t, html, "2024-03-19")
	assert.Contains(t, html, "1,500.50 CZK")
	assert.Contains(t, html, "1,815.61 CZK")
	assert.Contains(t, html, "Slovakia")
	assert.Contains(t, html, "IC: 12345678, DIC: CZ12345678")
	assert.Contains(t, html, "IBAN: SK3112000000198742637541")
	assert.Contains(t, html, "Thank you")
}

func TestTemplateEngine_RenderEscapesInput(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	inv := testInvoice()
	inv.Product = "<script>alert(1)</script>"
	doc, err := NewInvoiceDocument(inv)
	require.NoError(t, err)

	html, err := engine.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestTemplateEngine_RenderErrors(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	_, err = engine.Render(context.Background(), nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeTemplateFailed, renderErr.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc, _ := NewInvoiceDocument(testInvoice())
	_, err = engine.Render(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
}
