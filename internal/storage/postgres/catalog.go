package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/catalog"
	"github.com/xenking/promo-engine/internal/slug"
)

const (
	findPermalinksPrefixedSQL = `SELECT permalink FROM products
		WHERE permalink LIKE $1 || '%' ORDER BY permalink`

	insertProductSQL = `INSERT INTO products (id, name, price, permalink)
		VALUES ($1, $2, $3, $4)`

	updatePermalinkSQL = `UPDATE products SET permalink = $2 WHERE id = $1`

	getProductByPermalinkSQL = `SELECT id, name, price, permalink
		FROM products WHERE permalink = $1`
)

// uniqueViolation is the PostgreSQL error code for a broken unique constraint.
const uniqueViolation = "23505"

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore implements catalog.Store backed by PostgreSQL. Permalink
// uniqueness rides on the table's unique constraint; violations surface as
// slug.ErrConflict so the ensurer can retry with the next candidate.
type CatalogStore struct {
	pool *pgxpool.Pool
}

// NewCatalogStore returns a CatalogStore that uses the given pool.
func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

// FindPrefixed returns stored permalinks textually starting with prefix.
func (s *CatalogStore) FindPrefixed(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, findPermalinksPrefixedSQL, prefix)
	if err != nil {
		return nil, fmt.Errorf("scanning permalinks for %q: %w", prefix, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var v string
		err := row.Scan(&v)
		return v, err
	})
}

// Insert persists a new product. A taken permalink yields slug.ErrConflict.
func (s *CatalogStore) Insert(ctx context.Context, p catalog.Product) error {
	_, err := s.pool.Exec(ctx, insertProductSQL, p.ID, p.Name, p.Price, p.Permalink)
	if err != nil {
		if isUniqueViolation(err) {
			return slug.ErrConflict
		}
		return fmt.Errorf("inserting product %q: %w", p.ID, err)
	}
	return nil
}

// UpdatePermalink rewrites a product's permalink. A taken value yields
// slug.ErrConflict.
func (s *CatalogStore) UpdatePermalink(ctx context.Context, id, permalink string) error {
	_, err := s.pool.Exec(ctx, updatePermalinkSQL, id, permalink)
	if err != nil {
		if isUniqueViolation(err) {
			return slug.ErrConflict
		}
		return fmt.Errorf("updating permalink for %q: %w", id, err)
	}
	return nil
}

// GetByPermalink finds a product by its exact permalink.
func (s *CatalogStore) GetByPermalink(ctx context.Context, permalink string) (*catalog.Product, error) {
	rows, err := s.pool.Query(ctx, getProductByPermalinkSQL, permalink)
	if err != nil {
		return nil, fmt.Errorf("getting product by permalink %q: %w", permalink, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting product by permalink %q: %w", permalink, err)
	}
	return &p, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p     catalog.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &price, &p.Permalink)
	p.Price = price
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
