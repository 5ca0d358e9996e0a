package persistence

import (
	"fmt"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// invoiceColumns maps criteria fields to qualified invoice columns
var invoiceColumns = map[invoice.Field]string{
	invoice.FieldHidden:  "invoice.hidden",
	invoice.FieldBuyer:   "invoice.buyer_id",
	invoice.FieldSeller:  "invoice.seller_id",
	invoice.FieldProduct: "invoice.product",
	invoice.FieldPrice:   "invoice.price",
}

// applyCriteria adds one WHERE clause per predicate; gorm joins them with AND
func applyCriteria(query *gorm.DB, criteria *invoice.Criteria) (*gorm.DB, error) {
	if criteria == nil {
		criteria = invoice.NewCriteria()
	}
	for _, p := range criteria.Predicates() {
		column, ok := invoiceColumns[p.Field]
		if !ok {
			return nil, fmt.Errorf("unsupported invoice criteria field %q", p.Field)
		}

		switch p.Op {
		case invoice.OpEq:
			query = query.Where(column+" = ?", p.Value)
		case invoice.OpIn:
			ids, _ := p.Value.([]int64)
			if len(ids) == 0 {
				query = query.Where("1 = 0")
				continue
			}
			query = query.Where(column+" IN ?", ids)
		case invoice.OpContainsFold:
			// PostgreSQL LOWER folds beyond ASCII; stock SQLite LOWER does not
			pattern := "%" + escapeLike(invoice.FoldPattern(p.Value.(string))) + "%"
			query = query.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
		case invoice.OpGte:
			query = query.Where(column+" >= ?", p.Value.(decimal.Decimal))
		case invoice.OpLte:
			query = query.Where(column+" <= ?", p.Value.(decimal.Decimal))
		default:
			return nil, fmt.Errorf("unsupported invoice criteria operator %q", p.Op)
		}
	}
	return query, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
