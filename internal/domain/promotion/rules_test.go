package promotion

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xenking/promo-engine/internal/domain/order"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nd(v string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(v), Valid: true}
}

func orderWithItemTotal(t *testing.T, total string) *order.Order {
	t.Helper()
	o := order.New("o1")
	o.AddLineItem("p1", d(total), 1)
	return o
}

func TestItemTotalRule_Threshold(t *testing.T) {
	rule := &ItemTotalRule{Amount: nd("50")}

	assert.False(t, rule.Eligible(orderWithItemTotal(t, "49.99")))
	assert.True(t, rule.Eligible(orderWithItemTotal(t, "50")))
	assert.True(t, rule.Eligible(orderWithItemTotal(t, "50.01")))
}

func TestItemTotalRule_MissingThresholdNeverEligible(t *testing.T) {
	rule := &ItemTotalRule{}

	assert.False(t, rule.Eligible(orderWithItemTotal(t, "1000")))
}

func TestProductRule(t *testing.T) {
	o := order.New("o1")
	o.AddLineItem("mug", d("40"), 1)

	assert.True(t, (&ProductRule{ProductIDs: []string{"mug", "bag"}}).Eligible(o))
	assert.False(t, (&ProductRule{ProductIDs: []string{"bag"}}).Eligible(o))

	// An empty product set places no restriction.
	assert.True(t, (&ProductRule{}).Eligible(o))
}

func TestFirstOrderRule(t *testing.T) {
	rule := &FirstOrderRule{}

	guest := order.New("o1")
	assert.True(t, rule.Eligible(guest))

	fresh := order.New("o2")
	fresh.Customer = &order.Customer{ID: "c1"}
	assert.True(t, rule.Eligible(fresh))

	repeat := order.New("o3")
	repeat.Customer = &order.Customer{ID: "c2", CompletedOrders: 3}
	assert.False(t, rule.Eligible(repeat))
}

func TestUserLoggedInRule(t *testing.T) {
	rule := &UserLoggedInRule{}

	guest := order.New("o1")
	assert.False(t, rule.Eligible(guest))

	known := order.New("o2")
	known.Customer = &order.Customer{ID: "c1"}
	assert.True(t, rule.Eligible(known))
}

func TestLandingPageRule(t *testing.T) {
	rule := &LandingPageRule{Path: "content/cvv"}

	o := order.New("o1")
	assert.False(t, rule.Eligible(o))

	o.RecordVisit("/content/cvv")
	assert.True(t, rule.Eligible(o))

	// A rule without a configured path never passes.
	assert.False(t, (&LandingPageRule{}).Eligible(o))
}

func TestPromotion_EligibleRequiresEveryRule(t *testing.T) {
	o := order.New("o1")
	o.AddLineItem("mug", d("60"), 1)

	p := &Promotion{
		ID: "p1",
		Rules: []Rule{
			&ItemTotalRule{Amount: nd("50")},
			&ProductRule{ProductIDs: []string{"bag"}},
		},
	}
	assert.False(t, p.Eligible(o))

	o.AddLineItem("bag", d("20"), 1)
	assert.True(t, p.Eligible(o))
}

func TestPromotion_ZeroRulesAlwaysEligible(t *testing.T) {
	p := &Promotion{ID: "p1"}
	assert.True(t, p.Eligible(order.New("o1")))
}
