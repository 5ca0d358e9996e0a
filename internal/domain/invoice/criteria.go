package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field is a filterable invoice column
type Field string

const (
	FieldHidden  Field = "hidden"
	FieldBuyer   Field = "buyer_id"
	FieldSeller  Field = "seller_id"
	FieldProduct Field = "product"
	FieldPrice   Field = "price"
)

// Operator is the comparison applied by a predicate
type Operator string

const (
	OpEq           Operator = "eq"
	OpIn           Operator = "in"
	OpContainsFold Operator = "contains_fold"
	OpGte          Operator = "gte"
	OpLte          Operator = "lte"
)

// Predicate is a single search condition. Value holds bool for OpEq on
// FieldHidden, int64 for OpEq on party fields, []int64 for OpIn,
// string for OpContainsFold and decimal.Decimal for price bounds.
type Predicate struct {
	Field Field
	Op    Operator
	Value any
}

// Criteria is an AND-combined list of predicates. A new Criteria always
// excludes hidden invoices.
type Criteria struct {
	predicates []Predicate
}

// NewCriteria starts a search over visible invoices
func NewCriteria() *Criteria {
	return &Criteria{
		predicates: []Predicate{{Field: FieldHidden, Op: OpEq, Value: false}},
	}
}

// BuyerIn restricts to invoices whose buyer is any of ids
func (c *Criteria) BuyerIn(ids ...int64) *Criteria {
	return c.add(FieldBuyer, OpIn, append([]int64(nil), ids...))
}

// SellerIn restricts to invoices whose seller is any of ids
func (c *Criteria) SellerIn(ids ...int64) *Criteria {
	return c.add(FieldSeller, OpIn, append([]int64(nil), ids...))
}

// BuyerIs restricts to a single buyer row
func (c *Criteria) BuyerIs(id int64) *Criteria {
	return c.add(FieldBuyer, OpEq, id)
}

// SellerIs restricts to a single seller row
func (c *Criteria) SellerIs(id int64) *Criteria {
	return c.add(FieldSeller, OpEq, id)
}

// ProductContains adds a case-insensitive substring match. Blank input
// adds nothing.
func (c *Criteria) ProductContains(s string) *Criteria {
	s = strings.TrimSpace(s)
	if s == "" {
		return c
	}
	return c.add(FieldProduct, OpContainsFold, s)
}

// PriceAtLeast adds an inclusive lower bound. A nil bound adds nothing.
func (c *Criteria) PriceAtLeast(min *decimal.Decimal) *Criteria {
	if min == nil {
		return c
	}
	return c.add(FieldPrice, OpGte, *min)
}

// PriceAtMost adds an inclusive upper bound. A nil bound adds nothing.
func (c *Criteria) PriceAtMost(max *decimal.Decimal) *Criteria {
	if max == nil {
		return c
	}
	return c.add(FieldPrice, OpLte, *max)
}

// Predicates returns a copy of the predicate list in insertion order
func (c *Criteria) Predicates() []Predicate {
	out := make([]Predicate, len(c.predicates))
	copy(out, c.predicates)
	return out
}

// Matches evaluates the criteria against an in-memory invoice
func (c *Criteria) Matches(inv *Invoice) bool {
	for _, p := range c.predicates {
		if !p.matches(inv) {
			return false
		}
	}
	return true
}

func (c *Criteria) add(field Field, op Operator, value any) *Criteria {
	c.predicates = append(c.predicates, Predicate{Field: field, Op: op, Value: value})
	return c
}

func (p Predicate) matches(inv *Invoice) bool {
	switch p.Field {
	case FieldHidden:
		return inv.Hidden == p.Value.(bool)
	case FieldBuyer:
		return matchID(p, inv.BuyerID)
	case FieldSeller:
		return matchID(p, inv.SellerID)
	case FieldProduct:
		return ContainsFold(inv.Product, p.Value.(string))
	case FieldPrice:
		bound := p.Value.(decimal.Decimal)
		if p.Op == OpGte {
			return inv.Price.GreaterThanOrEqual(bound)
		}
		return inv.Price.LessThanOrEqual(bound)
	}
	return false
}

func matchID(p Predicate, id int64) bool {
	if p.Op == OpEq {
		return id == p.Value.(int64)
	}
	for _, candidate := range p.Value.([]int64) {
		if candidate == id {
			return true
		}
	}
	return false
}

// ContainsFold reports whether substr is within s under Unicode case folding
func ContainsFold(s, substr string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}

// FoldPattern returns the case-folded form of s used for LIKE matching
func FoldPattern(s string) string {
	return cases.Lower(language.Und).String(s)
}
