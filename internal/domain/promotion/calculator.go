package promotion

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/domain/order"
)

// CalculatorType enumerates the closed set of calculator strategies.
type CalculatorType string

const (
	// CalcFlatRate produces a constant amount per order.
	CalcFlatRate CalculatorType = "flat_rate"
	// CalcFlatPercent produces a percentage of the order's item total.
	CalcFlatPercent CalculatorType = "flat_percent"
	// CalcFreeShipping produces exactly the order's shipping cost.
	CalcFreeShipping CalculatorType = "free_shipping"
	// CalcPerItemRate produces a constant amount per matching item unit.
	CalcPerItemRate CalculatorType = "per_item_rate"
)

var hundred = decimal.NewFromInt(100)

// Calculator is a stateless pricing strategy: preferences plus an order
// snapshot map to a non-negative discount magnitude. The owning action
// decides the sign (create-adjustment actions negate it into a discount).
//
// A calculator with a missing preference computes zero rather than failing:
// a misconfigured promotion must never block checkout.
type Calculator struct {
	Type CalculatorType
	// Amount is the monetary preference of flat-rate and per-item-rate
	// calculators.
	Amount decimal.NullDecimal
	// Percent is the percentage preference of flat-percent calculators.
	Percent decimal.NullDecimal
	// ProductIDs restricts per-item-rate calculators to a product set.
	// Empty means every line item matches.
	ProductIDs []string
}

// Compute returns the discount magnitude for the order, rounded to 2 decimal
// places and floored at zero.
func (c Calculator) Compute(o *order.Order) decimal.Decimal {
	var amount decimal.Decimal
	switch c.Type {
	case CalcFlatRate:
		if !c.Amount.Valid {
			return decimal.Zero
		}
		amount = c.Amount.Decimal
	case CalcFlatPercent:
		if !c.Percent.Valid {
			return decimal.Zero
		}
		amount = c.Percent.Decimal.Mul(o.ItemTotal).Div(hundred)
	case CalcFreeShipping:
		// Exactly the shipping charge, so the net cost becomes zero and
		// never negative.
		amount = o.ShipTotal()
	case CalcPerItemRate:
		amount = c.computePerItem(o)
	default:
		return decimal.Zero
	}
	return floorAtZero(amount).Round(2)
}

// ComputeItem returns the discount magnitude for a single line item.
// Only per-item-rate calculators produce a non-zero per-line amount.
func (c Calculator) ComputeItem(li order.LineItem) decimal.Decimal {
	if c.Type != CalcPerItemRate || !c.Amount.Valid {
		return decimal.Zero
	}
	if !c.matches(li.ProductID) {
		return decimal.Zero
	}
	rate := c.Amount.Decimal.Mul(decimal.NewFromInt(int64(li.Quantity)))
	return floorAtZero(rate).Round(2)
}

func (c Calculator) computePerItem(o *order.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range o.LineItems {
		sum = sum.Add(c.ComputeItem(li))
	}
	return sum
}

func (c Calculator) matches(productID string) bool {
	if len(c.ProductIDs) == 0 {
		return true
	}
	for _, id := range c.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
