package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// State tracks where an order is in its lifecycle. Adjustments are only
// recomputed while the order is still a cart.
type State string

const (
	// StateCart is the default state: contents and adjustments are mutable.
	StateCart State = "cart"
	// StateComplete marks a placed order. Its adjustments are locked.
	StateComplete State = "complete"
)

// LineItem is one product position on an order. Quantity is always positive:
// setting it to zero removes the line from the order.
type LineItem struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Amount returns price * quantity for this line.
func (li LineItem) Amount() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Shipment carries the delivery cost charged to the order.
type Shipment struct {
	ID   string
	Cost decimal.Decimal
}

// Customer is the buyer snapshot the rule evaluator reads. A nil Customer on
// an order means a guest checkout.
type Customer struct {
	ID              string
	CompletedOrders int
}

// Order is a mutable aggregate of line items, shipments and adjustments.
// Totals are recomputed eagerly on every mutation, never cached stale.
type Order struct {
	ID         string
	State      State
	Customer   *Customer
	CouponCode string

	LineItems   []LineItem
	Shipments   []Shipment
	Adjustments []*Adjustment

	// visitedPaths records landing pages seen during this order's session.
	visitedPaths map[string]bool
	// appliedActions tracks promotion actions that already ran once for this
	// order, e.g. bundled line items must not be added twice.
	appliedActions map[string]bool

	ItemTotal       decimal.Decimal
	AdjustmentTotal decimal.Decimal
	Total           decimal.Decimal

	CreatedAt   time.Time
	CompletedAt *time.Time
}

// New returns an empty cart with zeroed totals.
func New(id string) *Order {
	return &Order{
		ID:              id,
		State:           StateCart,
		visitedPaths:    make(map[string]bool),
		appliedActions:  make(map[string]bool),
		ItemTotal:       decimal.Zero,
		AdjustmentTotal: decimal.Zero,
		Total:           decimal.Zero,
		CreatedAt:       time.Now(),
	}
}

// Completed reports whether the order has been placed.
func (o *Order) Completed() bool {
	return o.State == StateComplete
}

// AddLineItem adds quantity of a product at the given unit price, merging
// into an existing line for the same product.
func (o *Order) AddLineItem(productID string, price decimal.Decimal, quantity int) {
	if quantity <= 0 {
		return
	}
	for i := range o.LineItems {
		if o.LineItems[i].ProductID == productID {
			o.LineItems[i].Quantity += quantity
			o.UpdateTotals()
			return
		}
	}
	o.LineItems = append(o.LineItems, LineItem{
		ProductID: productID,
		Price:     price,
		Quantity:  quantity,
	})
	o.UpdateTotals()
}

// SetQuantity changes the quantity of an existing line. Zero or negative
// removes the line from the order.
func (o *Order) SetQuantity(productID string, quantity int) {
	for i := range o.LineItems {
		if o.LineItems[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			o.LineItems = append(o.LineItems[:i], o.LineItems[i+1:]...)
		} else {
			o.LineItems[i].Quantity = quantity
		}
		o.UpdateTotals()
		return
	}
}

// Contains reports whether the order has a line item for the product.
func (o *Order) Contains(productID string) bool {
	for _, li := range o.LineItems {
		if li.ProductID == productID {
			return true
		}
	}
	return false
}

// ProductIDs returns the product IDs currently on the order.
func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		ids = append(ids, li.ProductID)
	}
	return ids
}

// ShipTotal returns the sum of all shipment costs.
func (o *Order) ShipTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range o.Shipments {
		sum = sum.Add(s.Cost)
	}
	return sum
}

// RecordVisit stores the fact that a content page was visited during this
// order's session. The landing-page rule only reads recorded facts.
func (o *Order) RecordVisit(path string) {
	if o.visitedPaths == nil {
		o.visitedPaths = make(map[string]bool)
	}
	o.visitedPaths[normalizePath(path)] = true
}

// Visited reports whether the given content path was recorded for this order.
func (o *Order) Visited(path string) bool {
	return o.visitedPaths[normalizePath(path)]
}

func normalizePath(path string) string {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}

// MarkActionApplied records that a one-shot promotion action already ran.
func (o *Order) MarkActionApplied(actionID string) {
	if o.appliedActions == nil {
		o.appliedActions = make(map[string]bool)
	}
	o.appliedActions[actionID] = true
}

// ActionApplied reports whether a one-shot promotion action already ran.
func (o *Order) ActionApplied(actionID string) bool {
	return o.appliedActions[actionID]
}

// Adjustment returns the promotion adjustment originated by the given
// promotion, or nil when none exists yet.
func (o *Order) Adjustment(promotionID string) *Adjustment {
	for _, a := range o.Adjustments {
		if a.PromotionID == promotionID {
			return a
		}
	}
	return nil
}

// EligibleAdjustments returns the adjustments currently counting toward the
// order total.
func (o *Order) EligibleAdjustments() []*Adjustment {
	var out []*Adjustment
	for _, a := range o.Adjustments {
		if a.Eligible {
			out = append(out, a)
		}
	}
	return out
}

// UpdateTotals recomputes item, adjustment and order totals from scratch.
// Total = item total + shipment costs + eligible adjustment amounts.
func (o *Order) UpdateTotals() {
	itemTotal := decimal.Zero
	for _, li := range o.LineItems {
		itemTotal = itemTotal.Add(li.Amount())
	}

	adjTotal := decimal.Zero
	for _, a := range o.Adjustments {
		if a.Eligible {
			adjTotal = adjTotal.Add(a.Amount)
		}
	}

	o.ItemTotal = itemTotal.Round(2)
	o.AdjustmentTotal = adjTotal.Round(2)
	o.Total = itemTotal.Add(o.ShipTotal()).Add(adjTotal).Round(2)
}

// Complete places the order: further adjustment recomputation becomes a
// no-op and all existing adjustments are frozen at their current amounts.
func (o *Order) Complete() {
	if o.Completed() {
		return
	}
	o.State = StateComplete
	now := time.Now()
	o.CompletedAt = &now
	for _, a := range o.Adjustments {
		a.Locked = true
	}
	o.UpdateTotals()
}
