// Package engine orchestrates promotion evaluation against orders: it
// creates and updates adjustments, keeps only the most valuable promotion
// adjustment eligible, and applies coupon codes.
package engine

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-engine/internal/domain/order"
	"github.com/xenking/promo-engine/internal/domain/promotion"
)

// lockStripes bounds memory for per-order serialization. Two orders may
// share a stripe; that only costs contention, never correctness.
const lockStripes = 64

// Source provides the promotion definitions an engine evaluates. The set is
// treated as an immutable snapshot during one recomputation pass.
type Source interface {
	ActiveAt(now time.Time) []*promotion.Promotion
	MatchCode(code string) (*promotion.Promotion, bool)
	RecordUse(promotionID string)
}

// Engine recomputes promotion adjustments for orders. Recomputation for one
// order is serialized; distinct orders run in parallel.
type Engine struct {
	source Source
	now    func() time.Time

	locks [lockStripes]sync.Mutex

	tracer      trace.Tracer
	recomputes  metric.Int64Counter
	adjustments metric.Int64Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source, mainly for activation-window tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTracerProvider sets the tracer provider used for recompute spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer("promo-engine") }
}

// New creates an Engine over the given promotion source.
func New(source Source, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		now:    time.Now,
		tracer: otel.Tracer("promo-engine"),
	}
	meter := otel.Meter("promo-engine")
	e.recomputes, _ = meter.Int64Counter("promo.recomputes")
	e.adjustments, _ = meter.Int64Counter("promo.adjustments.written")
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) lock(orderID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderID))
	return &e.locks[h.Sum32()%lockStripes]
}

// Recompute re-evaluates every applicable promotion for the order and
// converges its adjustment set. It is idempotent: calling it repeatedly
// without intervening order changes yields the same adjustments.
//
// Completed orders are left untouched.
func (e *Engine) Recompute(ctx context.Context, o *order.Order, event promotion.Event) {
	mu := e.lock(o.ID)
	mu.Lock()
	defer mu.Unlock()

	e.recompute(ctx, o, event)
}

func (e *Engine) recompute(ctx context.Context, o *order.Order, event promotion.Event) {
	ctx, span := e.tracer.Start(ctx, "engine.Recompute")
	defer span.End()

	e.recomputes.Add(ctx, 1)

	if o.Completed() {
		return
	}

	now := e.now()
	lg := zctx.From(ctx)

	// Promotion IDs whose adjustment survives this pass as a candidate.
	eligible := make(map[string]bool)

	for _, p := range e.source.ActiveAt(now) {
		if !e.considered(p, o, event) {
			continue
		}
		if !e.qualifies(p, o) {
			if adj := o.Adjustment(p.ID); adj != nil {
				adj.SetEligible(false)
			}
			continue
		}

		// One-shot side effects first: bundled line items change the item
		// total the calculators see.
		for _, a := range p.Actions {
			a.Perform(o)
		}
		o.UpdateTotals()

		if !hasAdjustmentAction(p) {
			continue
		}

		amount := candidateAmount(p, o)
		adj := o.Adjustment(p.ID)
		if adj == nil {
			adj = newAdjustment(p, amount)
			o.Adjustments = append(o.Adjustments, adj)
			e.adjustments.Add(ctx, 1)
			lg.Debug("promotion adjustment created",
				zap.String("order_id", o.ID),
				zap.String("promotion", p.Name),
				zap.String("amount", amount.String()),
			)
		} else {
			adj.Update(amount)
		}
		adj.SetEligible(true)
		eligible[p.ID] = true
	}

	// Promotions that vanished, expired, or stopped being considered leave
	// their adjustments behind as ineligible history.
	for _, adj := range o.Adjustments {
		if !eligible[adj.PromotionID] {
			adj.SetEligible(false)
		}
	}

	e.pickWinner(o)
	o.UpdateTotals()
}

// considered reports whether a promotion is checked for this recomputation.
// Contents-changed and landing-page promotions are always checked; coupon
// promotions only once their exact code is on the order. A promotion that
// already owns an adjustment is always re-checked so it can lose
// eligibility.
func (e *Engine) considered(p *promotion.Promotion, o *order.Order, event promotion.Event) bool {
	if o.Adjustment(p.ID) != nil {
		return true
	}
	switch p.Event {
	case promotion.EventContentsChanged, promotion.EventContentVisited:
		return true
	case promotion.EventCouponAdded:
		return p.Code != "" && o.CouponCode == p.Code
	default:
		return p.Event == event
	}
}

// qualifies reports whether the promotion currently earns its adjustment.
// Coupon promotions additionally require their exact code on the order, so
// replacing the order's coupon retires the previous promotion's adjustment.
func (e *Engine) qualifies(p *promotion.Promotion, o *order.Order) bool {
	if p.UsageLimitExceeded() {
		return false
	}
	if p.Event == promotion.EventCouponAdded && o.CouponCode != p.Code {
		return false
	}
	return p.Eligible(o)
}

// pickWinner keeps exactly one promotion adjustment eligible: the one with
// the largest absolute discount. Only the best promotion counts toward the
// total; the rest stay on the order as ineligible records.
func (e *Engine) pickWinner(o *order.Order) {
	var winner *order.Adjustment
	for _, adj := range o.Adjustments {
		if !adj.Eligible {
			continue
		}
		if winner == nil || adj.Discount().GreaterThan(winner.Discount()) {
			winner = adj
		}
	}
	if winner == nil {
		return
	}
	for _, adj := range o.Adjustments {
		if adj.Eligible && adj != winner {
			adj.SetEligible(false)
		}
	}
}

// RecomputeAll recomputes a batch of orders in parallel. Each order's pass
// is still serialized through the per-order lock.
func (e *Engine) RecomputeAll(ctx context.Context, orders []*order.Order, event promotion.Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, o := range orders {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "recompute batch")
			}
			e.Recompute(ctx, o, event)
			return nil
		})
	}
	return g.Wait()
}

// Complete places the order, freezing its adjustments, and records one use
// against every promotion that ended up with an eligible adjustment.
func (e *Engine) Complete(ctx context.Context, o *order.Order) {
	mu := e.lock(o.ID)
	mu.Lock()
	defer mu.Unlock()

	if o.Completed() {
		return
	}
	for _, adj := range o.EligibleAdjustments() {
		e.source.RecordUse(adj.PromotionID)
	}
	o.Complete()

	zctx.From(ctx).Info("order completed",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.String()),
	)
}

func hasAdjustmentAction(p *promotion.Promotion) bool {
	for _, a := range p.Actions {
		if a.Type == promotion.ActionCreateAdjustment {
			return true
		}
	}
	return false
}

// candidateAmount sums every create-adjustment action of the promotion into
// one signed candidate total.
func candidateAmount(p *promotion.Promotion, o *order.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range p.Actions {
		sum = sum.Add(a.AdjustmentAmount(o))
	}
	return sum
}

func newAdjustment(p *promotion.Promotion, amount decimal.Decimal) *order.Adjustment {
	now := time.Now()
	return &order.Adjustment{
		ID:          uuid.New().String(),
		PromotionID: p.ID,
		Label:       p.Name,
		Amount:      amount,
		Eligible:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
