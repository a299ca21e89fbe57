package promotion

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// bloomCapacity sizes the coupon-code filter. Stores ingest large code
	// feeds, so the fast path has to stay cheap even with millions of codes.
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
)

// Registry holds the promotion definitions shared by all orders. Definitions
// are read-only during a recomputation pass; Reload swaps the whole set.
//
// Coupon lookups go through a bloom filter first so that the common case of
// an unknown code is answered without touching the code index.
type Registry struct {
	mu         sync.RWMutex
	promotions []*Promotion
	byCode     map[string]*Promotion
	codes      *bloom.BloomFilter
}

// NewRegistry returns a registry preloaded with the given promotions.
func NewRegistry(promotions ...*Promotion) *Registry {
	r := &Registry{}
	r.Reload(promotions)
	return r
}

// Reload replaces every promotion definition atomically.
func (r *Registry) Reload(promotions []*Promotion) {
	byCode := make(map[string]*Promotion, len(promotions))
	codes := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	for _, p := range promotions {
		if p.Code == "" {
			continue
		}
		byCode[p.Code] = p
		codes.AddString(p.Code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.promotions = promotions
	r.byCode = byCode
	r.codes = codes
}

// Add registers one more promotion without dropping the existing set.
func (r *Registry) Add(p *Promotion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promotions = append(r.promotions, p)
	if p.Code != "" {
		r.byCode[p.Code] = p
		r.codes.AddString(p.Code)
	}
}

// All returns a snapshot of every registered promotion.
func (r *Registry) All() []*Promotion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Promotion, len(r.promotions))
	copy(out, r.promotions)
	return out
}

// ActiveAt returns the promotions whose activation window contains now.
func (r *Registry) ActiveAt(now time.Time) []*Promotion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Promotion
	for _, p := range r.promotions {
		if p.ActiveAt(now) {
			out = append(out, p)
		}
	}
	return out
}

// MatchCode finds the promotion with exactly the given coupon code.
// Matching is case-sensitive.
func (r *Registry) MatchCode(code string) (*Promotion, bool) {
	if code == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.codes.TestString(code) {
		return nil, false
	}
	p, ok := r.byCode[code]
	return p, ok
}

// RecordUse counts one completed-order use against a promotion. Promotions
// past their usage limit stop producing adjustments.
func (r *Registry) RecordUse(promotionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.promotions {
		if p.ID == promotionID {
			p.Uses++
			return
		}
	}
}

// PossiblePromotions lists advertised promotions inside their activation
// window that reference the given product. Display-only: eligibility is not
// evaluated here.
func (r *Registry) PossiblePromotions(productID string, now time.Time) []*Promotion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Promotion
	for _, p := range r.promotions {
		if p.Advertise && p.ActiveAt(now) && p.References(productID) {
			out = append(out, p)
		}
	}
	return out
}
