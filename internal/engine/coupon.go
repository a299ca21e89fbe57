package engine

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/promo-engine/internal/domain/order"
	"github.com/xenking/promo-engine/internal/domain/promotion"
)

// CouponStatus is the outcome of applying a coupon code to an order.
type CouponStatus string

const (
	// CouponApplied means the code matched an active promotion. Whether a
	// discount actually lands still depends on the promotion's rules.
	CouponApplied CouponStatus = "applied"
	// CouponInvalid means no promotion carries the code, or its usage limit
	// is exhausted. The code stays recorded on the order as a no-op.
	CouponInvalid CouponStatus = "invalid"
	// CouponExpired means a promotion carries the code but its activation
	// window does not contain now.
	CouponExpired CouponStatus = "expired"
)

// CouponResult reports what applying a coupon code did.
type CouponResult struct {
	Status    CouponStatus
	Promotion *promotion.Promotion
}

// ApplyCouponCode records the code on the order and recomputes adjustments.
// An order holds at most one applied coupon code; applying a new one
// replaces it. Unknown codes are accepted without error and simply yield no
// adjustment. Matching is exact and case-sensitive.
func (e *Engine) ApplyCouponCode(ctx context.Context, o *order.Order, code string) CouponResult {
	mu := e.lock(o.ID)
	mu.Lock()
	defer mu.Unlock()

	if o.Completed() {
		return CouponResult{Status: CouponInvalid}
	}

	o.CouponCode = code

	p, ok := e.source.MatchCode(code)
	if !ok {
		zctx.From(ctx).Debug("coupon code matched no promotion",
			zap.String("order_id", o.ID),
		)
		e.recompute(ctx, o, promotion.EventCouponAdded)
		return CouponResult{Status: CouponInvalid}
	}

	res := CouponResult{Status: CouponApplied, Promotion: p}
	switch {
	case !p.ActiveAt(e.now()):
		res.Status = CouponExpired
	case p.UsageLimitExceeded():
		res.Status = CouponInvalid
	}

	e.recompute(ctx, o, promotion.EventCouponAdded)
	return res
}
