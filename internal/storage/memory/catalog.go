// Package memory implements the catalog and promotion stores on plain maps.
// Used by tests and the seed tooling when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/xenking/promo-engine/internal/catalog"
	"github.com/xenking/promo-engine/internal/slug"
)

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore is a map-backed catalog.Store. The permalink map mirrors the
// unique constraint a real database enforces, including conflict reporting.
type CatalogStore struct {
	mu          sync.RWMutex
	byID        map[string]catalog.Product
	byPermalink map[string]string
}

// NewCatalogStore returns an empty in-memory catalog.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		byID:        make(map[string]catalog.Product),
		byPermalink: make(map[string]string),
	}
}

// FindPrefixed returns stored permalinks textually starting with prefix,
// sorted for deterministic iteration.
func (s *CatalogStore) FindPrefixed(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for permalink := range s.byPermalink {
		if strings.HasPrefix(permalink, prefix) {
			out = append(out, permalink)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Insert stores a new product, enforcing permalink uniqueness.
func (s *CatalogStore) Insert(_ context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byPermalink[p.Permalink]; taken {
		return slug.ErrConflict
	}
	s.byID[p.ID] = p
	s.byPermalink[p.Permalink] = p.ID
	return nil
}

// UpdatePermalink rewrites an existing product's permalink.
func (s *CatalogStore) UpdatePermalink(_ context.Context, id, permalink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, taken := s.byPermalink[permalink]; taken && owner != id {
		return slug.ErrConflict
	}
	p, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byPermalink, p.Permalink)
	p.Permalink = permalink
	s.byID[id] = p
	s.byPermalink[permalink] = id
	return nil
}

// GetByPermalink finds a product by its exact permalink, nil when absent.
func (s *CatalogStore) GetByPermalink(_ context.Context, permalink string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPermalink[permalink]
	if !ok {
		return nil, nil
	}
	p := s.byID[id]
	return &p, nil
}
