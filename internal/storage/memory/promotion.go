package memory

import (
	"context"
	"sync"

	"github.com/xenking/promo-engine/internal/domain/promotion"
)

// PromotionStore is a map-backed promotion definition store.
type PromotionStore struct {
	mu     sync.RWMutex
	promos map[string]*promotion.Promotion
	order  []string
}

// NewPromotionStore returns an empty in-memory promotion store.
func NewPromotionStore() *PromotionStore {
	return &PromotionStore{promos: make(map[string]*promotion.Promotion)}
}

// Upsert stores or replaces a promotion definition.
func (s *PromotionStore) Upsert(_ context.Context, p *promotion.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promos[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.promos[p.ID] = p
	return nil
}

// ListAll returns every stored promotion in insertion order.
func (s *PromotionStore) ListAll(_ context.Context) ([]*promotion.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*promotion.Promotion, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.promos[id])
	}
	return out, nil
}

// RecordUse counts one completed-order use against the promotion.
func (s *PromotionStore) RecordUse(_ context.Context, promotionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.promos[promotionID]; ok {
		p.Uses++
	}
	return nil
}
