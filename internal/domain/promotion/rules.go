package promotion

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/domain/order"
)

// RuleKind enumerates the closed set of rule variants.
type RuleKind string

const (
	RuleItemTotal    RuleKind = "item_total"
	RuleProduct      RuleKind = "product"
	RuleFirstOrder   RuleKind = "first_order"
	RuleUserLoggedIn RuleKind = "user_logged_in"
	RuleLandingPage  RuleKind = "landing_page"
)

// Rule decides whether an order currently satisfies one promotion condition.
// Implementations are pure: no side effects, deterministic for a given order
// snapshot.
type Rule interface {
	Kind() RuleKind
	Eligible(o *order.Order) bool
}

// ItemTotalRule passes when the order's item total is at or above a
// configured threshold. A rule whose threshold was never configured is never
// eligible: checkout keeps working, the promotion just does not apply.
type ItemTotalRule struct {
	Amount decimal.NullDecimal
}

func (r *ItemTotalRule) Kind() RuleKind { return RuleItemTotal }

func (r *ItemTotalRule) Eligible(o *order.Order) bool {
	if !r.Amount.Valid {
		return false
	}
	return o.ItemTotal.GreaterThanOrEqual(r.Amount.Decimal)
}

// ProductRule passes when the order contains at least one of the configured
// products. An empty product set places no restriction.
type ProductRule struct {
	ProductIDs []string
}

func (r *ProductRule) Kind() RuleKind { return RuleProduct }

func (r *ProductRule) Eligible(o *order.Order) bool {
	if len(r.ProductIDs) == 0 {
		return true
	}
	for _, id := range r.ProductIDs {
		if o.Contains(id) {
			return true
		}
	}
	return false
}

// FirstOrderRule passes for guests and for customers without a completed
// order on record.
type FirstOrderRule struct{}

func (r *FirstOrderRule) Kind() RuleKind { return RuleFirstOrder }

func (r *FirstOrderRule) Eligible(o *order.Order) bool {
	return o.Customer == nil || o.Customer.CompletedOrders == 0
}

// UserLoggedInRule passes when the order belongs to an identified customer.
type UserLoggedInRule struct{}

func (r *UserLoggedInRule) Kind() RuleKind { return RuleUserLoggedIn }

func (r *UserLoggedInRule) Eligible(o *order.Order) bool {
	return o.Customer != nil && o.Customer.ID != ""
}

// LandingPageRule passes when the configured content path was visited during
// the order's session. The visit itself is recorded by the caller; the rule
// only reads the stored fact.
type LandingPageRule struct {
	Path string
}

func (r *LandingPageRule) Kind() RuleKind { return RuleLandingPage }

func (r *LandingPageRule) Eligible(o *order.Order) bool {
	if r.Path == "" {
		return false
	}
	return o.Visited(r.Path)
}
