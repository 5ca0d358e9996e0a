package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/invoicing/backend/internal/domain/person"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const defaultCurrency = "CZK"

// TemplateEngine renders invoice documents to HTML. Money, percentages and
// dates are formatted for the configured locale.
type TemplateEngine struct {
	locale   language.Tag
	currency string
	printer  *message.Printer
	tmpl     *template.Template
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocale sets the BCP 47 locale; unknown tags fall back to English
func WithLocale(tag string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if t, err := language.Parse(tag); err == nil && t != language.Und {
			e.locale = t
		}
	}
}

// WithCurrency sets the ISO 4217 code printed after amounts
func WithCurrency(code string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		if code = strings.TrimSpace(code); code != "" {
			e.currency = strings.ToUpper(code)
		}
	}
}

// NewTemplateEngine parses the built-in invoice template
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		locale:   language.English,
		currency: defaultCurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.printer = message.NewPrinter(e.locale)

	tmpl, err := template.New("invoice").Funcs(e.funcMap()).Parse(invoiceTemplate)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse invoice template", err)
	}
	e.tmpl = tmpl
	return e, nil
}

// Locale returns the formatting locale
func (e *TemplateEngine) Locale() language.Tag {
	return e.locale
}

// Render executes the invoice template for doc
func (e *TemplateEngine) Render(ctx context.Context, doc *InvoiceDocument) (string, error) {
	if doc == nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "invoice document is nil", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	data := struct {
		*InvoiceDocument
		Lang string
	}{doc, e.locale.String()}
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute invoice template", err)
	}
	return buf.String(), nil
}

func (e *TemplateEngine) funcMap() template.FuncMap {
	return template.FuncMap{
		"money":   e.formatMoney,
		"percent": e.formatPercent,
		"date":    e.formatDate,
		"country": formatCountry,
	}
}

// formatMoney prints amount with two fraction digits followed by the currency
// code, e.g. "1,815.61 CZK" in English or "1 815,61 CZK" in Czech.
func (e *TemplateEngine) formatMoney(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return e.printer.Sprintf("%v %s", number.Decimal(f, number.Scale(2)), e.currency)
}

func (e *TemplateEngine) formatPercent(vat int) string {
	return e.printer.Sprintf("%v", number.Percent(float64(vat)/100))
}

func (e *TemplateEngine) formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	base, _ := e.locale.Base()
	switch base.String() {
	case "cs", "sk":
		return t.Format("2. 1. 2006")
	}
	return t.Format("2006-01-02")
}

// formatCountry prints CZECHIA as Czechia
func formatCountry(c person.Country) string {
	return cases.Title(language.English).String(fmt.Sprint(c))
}
