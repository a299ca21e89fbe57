package promotion

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/domain/order"
)

// ActionType enumerates the closed set of action variants.
type ActionType string

const (
	// ActionCreateAdjustment attaches a discount adjustment to the order.
	ActionCreateAdjustment ActionType = "create_adjustment"
	// ActionCreateLineItems adds configured line items to the order once.
	ActionCreateLineItems ActionType = "create_line_items"
)

// BundleItem is one product a create-line-items action adds to the order.
type BundleItem struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Action is what an eligible promotion does to an order. A create-adjustment
// action owns exactly one calculator; a create-line-items action owns its
// bundle items instead.
type Action struct {
	ID         string
	Type       ActionType
	Calculator Calculator
	Items      []BundleItem
}

// AdjustmentAmount returns the signed adjustment amount this action
// contributes: the calculator magnitude negated into a discount. Actions
// that do not create adjustments contribute zero.
func (a Action) AdjustmentAmount(o *order.Order) decimal.Decimal {
	if a.Type != ActionCreateAdjustment {
		return decimal.Zero
	}
	return a.Calculator.Compute(o).Neg()
}

// Perform applies one-shot side effects to the order. Create-line-items
// actions add their bundle exactly once per order; everything else is
// handled through adjustments and is a no-op here.
func (a Action) Perform(o *order.Order) {
	if a.Type != ActionCreateLineItems {
		return
	}
	if o.ActionApplied(a.ID) {
		return
	}
	for _, item := range a.Items {
		o.AddLineItem(item.ProductID, item.Price, item.Quantity)
	}
	o.MarkActionApplied(a.ID)
}
