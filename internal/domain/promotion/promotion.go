// Package promotion models configurable promotions: activation windows,
// eligibility rules, and the actions that produce order adjustments or
// bundled line items.
package promotion

import (
	"time"

	"github.com/xenking/promo-engine/internal/domain/order"
)

// Event names the order lifecycle moment that triggers a promotion.
type Event string

const (
	// EventContentsChanged fires whenever line items are added, removed or
	// updated. Promotions with this event are re-checked on every mutation.
	EventContentsChanged Event = "order_contents_changed"
	// EventCouponAdded fires when a coupon code is supplied on the order.
	EventCouponAdded Event = "coupon_code_added"
	// EventContentVisited fires when a configured content page was visited.
	EventContentVisited Event = "content_visited"
)

// Promotion is a named discount campaign owning rules and actions.
// The zero value is never used directly; promotions are loaded from storage
// or built in tests.
type Promotion struct {
	ID        string
	Name      string
	Code      string
	Event     Event
	StartsAt  *time.Time
	ExpiresAt *time.Time
	Advertise bool
	// UsageLimit caps how many completed orders may use the promotion.
	// Zero means unlimited.
	UsageLimit int
	Uses       int

	Rules   []Rule
	Actions []Action
}

// ActiveAt reports whether the activation window contains the given instant.
// A promotion outside its window is ineligible regardless of its rules.
func (p *Promotion) ActiveAt(now time.Time) bool {
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return false
	}
	if p.ExpiresAt != nil && !now.Before(*p.ExpiresAt) {
		return false
	}
	return true
}

// UsageLimitExceeded reports whether the promotion has exhausted its allowed
// number of uses.
func (p *Promotion) UsageLimitExceeded() bool {
	return p.UsageLimit > 0 && p.Uses >= p.UsageLimit
}

// Eligible reports whether the order satisfies every rule. A promotion with
// zero rules is eligible unconditionally.
func (p *Promotion) Eligible(o *order.Order) bool {
	for _, r := range p.Rules {
		if !r.Eligible(o) {
			return false
		}
	}
	return true
}

// References reports whether any rule or action of the promotion mentions
// the given product. Used for the advertised-promotions listing.
func (p *Promotion) References(productID string) bool {
	for _, r := range p.Rules {
		pr, ok := r.(*ProductRule)
		if !ok {
			continue
		}
		for _, id := range pr.ProductIDs {
			if id == productID {
				return true
			}
		}
	}
	for _, a := range p.Actions {
		if a.Type != ActionCreateAdjustment {
			continue
		}
		for _, id := range a.Calculator.ProductIDs {
			if id == productID {
				return true
			}
		}
	}
	return false
}
