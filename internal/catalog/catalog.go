// Package catalog manages products and their permalinks. Permalink
// uniqueness is delegated to the slug ensurer; the storage layer enforces
// the constraint and claims are retried on conflict.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/slug"
)

// Product is a catalog entry. Permalink is unique within the store.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Permalink string
}

// Store defines catalog persistence. Insert and UpdatePermalink return
// slug.ErrConflict when the permalink uniqueness constraint is violated.
type Store interface {
	FindPrefixed(ctx context.Context, prefix string) ([]string, error)
	Insert(ctx context.Context, p Product) error
	UpdatePermalink(ctx context.Context, id, permalink string) error
	GetByPermalink(ctx context.Context, permalink string) (*Product, error)
}

// Service creates products with guaranteed-unique permalinks.
type Service struct {
	store Store
}

// NewService returns a Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create persists the product, deriving its permalink from the name unless
// an explicit permalink override was supplied. The override is used
// verbatim, so characters like quotes survive; the name-derived path is
// normalized first. Either way the committed value is made unique by suffix
// numbering.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	ens := slug.NewEnsurer(insertClaim{store: s.store, product: p})

	var (
		permalink string
		err       error
	)
	if p.Permalink != "" {
		permalink, err = ens.EnsureVerbatim(ctx, p.Permalink)
	} else {
		permalink, err = ens.Ensure(ctx, p.Name)
	}
	if err != nil {
		return Product{}, errors.Wrapf(err, "create product %q", p.Name)
	}

	p.Permalink = permalink
	return p, nil
}

// Relink regenerates an existing product's permalink from an explicit base
// string, bypassing the stored name. The base is normalized and made unique
// against the current catalog.
func (s *Service) Relink(ctx context.Context, productID, base string) (string, error) {
	ens := slug.NewEnsurer(updateClaim{store: s.store, productID: productID})
	permalink, err := ens.Ensure(ctx, base)
	if err != nil {
		return "", errors.Wrapf(err, "relink product %q", productID)
	}
	return permalink, nil
}

// insertClaim binds a pending product to the slug ensurer: claiming a slug
// is inserting the product row with that permalink, so the uniqueness
// constraint and the claim are one atomic operation.
type insertClaim struct {
	store   Store
	product Product
}

func (c insertClaim) FindPrefixed(ctx context.Context, prefix string) ([]string, error) {
	return c.store.FindPrefixed(ctx, prefix)
}

func (c insertClaim) Claim(ctx context.Context, value string) error {
	p := c.product
	p.Permalink = value
	return c.store.Insert(ctx, p)
}

type updateClaim struct {
	store     Store
	productID string
}

func (c updateClaim) FindPrefixed(ctx context.Context, prefix string) ([]string, error) {
	return c.store.FindPrefixed(ctx, prefix)
}

func (c updateClaim) Claim(ctx context.Context, value string) error {
	return c.store.UpdatePermalink(ctx, c.productID, value)
}
