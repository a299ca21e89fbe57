package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Adjustment is a monetary modification of an order originated by a
// promotion. Negative amounts are discounts, positive amounts surcharges.
//
// Adjustments are value-preserving: when a promotion stops qualifying, or a
// competing promotion wins, the record is marked ineligible rather than
// deleted so the history stays auditable. Once Locked (order completed) the
// amount is final.
type Adjustment struct {
	ID          string
	PromotionID string
	Label       string
	Amount      decimal.Decimal
	Eligible    bool
	Locked      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Discount returns the absolute discount value of the adjustment. Surcharges
// have zero discount value.
func (a *Adjustment) Discount() decimal.Decimal {
	if a.Amount.IsNegative() {
		return a.Amount.Neg()
	}
	return decimal.Zero
}

// Update replaces the adjustment amount unless the adjustment is locked.
func (a *Adjustment) Update(amount decimal.Decimal) {
	if a.Locked {
		return
	}
	a.Amount = amount
	a.UpdatedAt = time.Now()
}

// SetEligible flips eligibility unless the adjustment is locked.
func (a *Adjustment) SetEligible(eligible bool) {
	if a.Locked {
		return
	}
	a.Eligible = eligible
	a.UpdatedAt = time.Now()
}
