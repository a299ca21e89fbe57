package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestOrder_TotalsRecomputedOnMutation(t *testing.T) {
	o := New("o1")
	assert.True(t, o.Total.IsZero())

	o.AddLineItem("mug", d("40"), 1)
	assert.True(t, o.ItemTotal.Equal(d("40")))
	assert.True(t, o.Total.Equal(d("40")))

	o.AddLineItem("bag", d("20"), 2)
	assert.True(t, o.ItemTotal.Equal(d("80")))

	o.Shipments = append(o.Shipments, Shipment{ID: "s1", Cost: d("10")})
	o.UpdateTotals()
	assert.True(t, o.Total.Equal(d("90")))
}

func TestOrder_AddLineItemMergesSameProduct(t *testing.T) {
	o := New("o1")
	o.AddLineItem("mug", d("40"), 1)
	o.AddLineItem("mug", d("40"), 2)

	require.Len(t, o.LineItems, 1)
	assert.Equal(t, 3, o.LineItems[0].Quantity)
	assert.True(t, o.ItemTotal.Equal(d("120")))
}

func TestOrder_SetQuantityZeroRemovesLine(t *testing.T) {
	o := New("o1")
	o.AddLineItem("mug", d("40"), 1)
	o.AddLineItem("bag", d("20"), 1)

	o.SetQuantity("mug", 0)

	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "bag", o.LineItems[0].ProductID)
	assert.True(t, o.ItemTotal.Equal(d("20")))
	assert.False(t, o.Contains("mug"))
}

func TestOrder_TotalIncludesOnlyEligibleAdjustments(t *testing.T) {
	o := New("o1")
	o.AddLineItem("mug", d("40"), 1)
	o.Adjustments = append(o.Adjustments,
		&Adjustment{ID: "a1", PromotionID: "p1", Amount: d("-5"), Eligible: true},
		&Adjustment{ID: "a2", PromotionID: "p2", Amount: d("-4"), Eligible: false},
	)
	o.UpdateTotals()

	assert.True(t, o.Total.Equal(d("35")))
	assert.True(t, o.AdjustmentTotal.Equal(d("-5")))
	require.Len(t, o.EligibleAdjustments(), 1)
}

func TestOrder_CompleteLocksAdjustments(t *testing.T) {
	o := New("o1")
	o.AddLineItem("mug", d("40"), 1)
	adj := &Adjustment{ID: "a1", PromotionID: "p1", Amount: d("-5"), Eligible: true}
	o.Adjustments = append(o.Adjustments, adj)
	o.UpdateTotals()

	o.Complete()
	require.True(t, o.Completed())
	require.True(t, adj.Locked)

	// Locked adjustments ignore further mutation attempts.
	adj.Update(d("-100"))
	adj.SetEligible(false)
	assert.True(t, adj.Amount.Equal(d("-5")))
	assert.True(t, adj.Eligible)
}

func TestOrder_RecordVisitNormalizesLeadingSlash(t *testing.T) {
	o := New("o1")
	o.RecordVisit("/content/cvv")

	assert.True(t, o.Visited("content/cvv"))
	assert.True(t, o.Visited("/content/cvv"))
	assert.False(t, o.Visited("content/other"))
}

func TestAdjustment_Discount(t *testing.T) {
	discount := &Adjustment{Amount: d("-7.50")}
	assert.True(t, discount.Discount().Equal(d("7.50")))

	surcharge := &Adjustment{Amount: d("3")}
	assert.True(t, surcharge.Discount().IsZero())
}
