package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCriteria(t *testing.T) {
	t.Run("always excludes hidden invoices", func(t *testing.T) {
		preds := NewCriteria().Predicates()
		require.Len(t, preds, 1)
		assert.Equal(t, Predicate{Field: FieldHidden, Op: OpEq, Value: false}, preds[0])
	})

	t.Run("skips blank and nil inputs", func(t *testing.T) {
		c := NewCriteria().ProductContains("  ").PriceAtLeast(nil).PriceAtMost(nil)
		assert.Len(t, c.Predicates(), 1)
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		min := decimal.NewFromInt(10)
		max := decimal.NewFromInt(20)
		c := NewCriteria().BuyerIn(1, 2).SellerIs(5).ProductContains("Book").PriceAtLeast(&min).PriceAtMost(&max)

		preds := c.Predicates()
		require.Len(t, preds, 6)
		assert.Equal(t, FieldBuyer, preds[1].Field)
		assert.Equal(t, OpIn, preds[1].Op)
		assert.Equal(t, []int64{1, 2}, preds[1].Value)
		assert.Equal(t, Predicate{Field: FieldSeller, Op: OpEq, Value: int64(5)}, preds[2])
		assert.Equal(t, OpContainsFold, preds[3].Op)
		assert.Equal(t, OpGte, preds[4].Op)
		assert.Equal(t, OpLte, preds[5].Op)
	})

	t.Run("predicates are a copy", func(t *testing.T) {
		c := NewCriteria()
		preds := c.Predicates()
		preds[0].Value = true
		assert.Equal(t, false, c.Predicates()[0].Value)
	})
}

func TestCriteria_Matches(t *testing.T) {
	inv := &Invoice{Product: "Blue Book", Price: decimal.NewFromInt(100), BuyerID: 1, SellerID: 2}

	min := decimal.NewFromInt(100)
	max := decimal.NewFromInt(100)
	above := decimal.NewFromInt(101)

	assert.True(t, NewCriteria().Matches(inv))
	assert.True(t, NewCriteria().ProductContains("book").Matches(inv))
	assert.True(t, NewCriteria().PriceAtLeast(&min).PriceAtMost(&max).Matches(inv), "bounds are inclusive")
	assert.False(t, NewCriteria().PriceAtLeast(&above).Matches(inv))
	assert.True(t, NewCriteria().BuyerIn(3, 1).SellerIs(2).Matches(inv))
	assert.False(t, NewCriteria().BuyerIn().Matches(inv))
	assert.False(t, NewCriteria().SellerIn(1).Matches(inv))

	inv.Hidden = true
	assert.False(t, NewCriteria().Matches(inv))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Žluťoučký KŮŇ", "kůň"))
	assert.False(t, ContainsFold("Book", "pen"))
	assert.Equal(t, "žluťoučký kůň", FoldPattern("Žluťoučký KŮŇ"))
}
