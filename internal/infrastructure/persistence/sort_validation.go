package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC.
// Returns defaultDir if the input is empty or invalid.
func ValidateSortOrder(orderDir, defaultDir string) string {
	switch strings.ToUpper(strings.TrimSpace(orderDir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	if strings.EqualFold(defaultDir, "DESC") {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is empty or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]string, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if column, ok := allowedFields[trimmed]; ok && trimmed != "" {
		return column
	}
	return allowedFields[defaultField]
}

// PersonSortFields maps API sort keys to person columns
var PersonSortFields = map[string]string{
	"id":                    "id",
	"name":                  "name",
	"identificationNumber":  "identification_number",
	"identification_number": "identification_number",
}

// PersonStatisticsSortFields maps API sort keys to columns of the revenue query
var PersonStatisticsSortFields = map[string]string{
	"id":      "p.id",
	"name":    "p.name",
	"revenue": "revenue",
}

// InvoiceSortFields maps API sort keys to invoice columns. Keys are
// qualified because summary queries join the person table twice.
var InvoiceSortFields = map[string]string{
	"id":             "invoice.id",
	"invoiceNumber":  "invoice.invoice_number",
	"invoice_number": "invoice.invoice_number",
	"issued":         "invoice.issued",
	"dueDate":        "invoice.due_date",
	"due_date":       "invoice.due_date",
	"product":        "invoice.product",
	"price":          "invoice.price",
}
