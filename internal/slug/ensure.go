package slug

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrConflict is returned by a Store when claiming a slug hits the storage
// uniqueness constraint. The ensurer retries with the next candidate.
var ErrConflict = errors.New("slug already taken")

// defaultRetries bounds the claim-retry loop. The scan-then-claim window is
// small; more than a few conflicts in a row means broken configuration.
const defaultRetries = 3

// Store is the uniqueness scope slugs are generated against, typically one
// table with a unique text column.
type Store interface {
	// FindPrefixed returns stored values whose text starts with prefix,
	// including an exact match (a LIKE 'prefix%' scan).
	FindPrefixed(ctx context.Context, prefix string) ([]string, error)
	// Claim reserves the slug, returning ErrConflict when it is taken.
	Claim(ctx context.Context, value string) error
}

// Ensurer generates and commits unique slugs against a Store, retrying on
// uniqueness conflicts from concurrent writers.
type Ensurer struct {
	store   Store
	retries int
}

// NewEnsurer returns an Ensurer over the given store.
func NewEnsurer(store Store) *Ensurer {
	return &Ensurer{store: store, retries: defaultRetries}
}

// Ensure normalizes the desired base and commits a unique slug derived from
// it.
func (e *Ensurer) Ensure(ctx context.Context, desired string) (string, error) {
	return e.ensure(ctx, Normalize(desired))
}

// EnsureVerbatim commits a unique slug from an explicit override string,
// bypassing normalization. Characters like quotes are preserved as given.
func (e *Ensurer) EnsureVerbatim(ctx context.Context, value string) (string, error) {
	return e.ensure(ctx, value)
}

func (e *Ensurer) ensure(ctx context.Context, base string) (string, error) {
	for attempt := 0; ; attempt++ {
		occupied, err := e.store.FindPrefixed(ctx, base)
		if err != nil {
			return "", errors.Wrapf(err, "scan slugs for %q", base)
		}

		candidate := Next(base, occupied)
		err = e.store.Claim(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, ErrConflict) {
			return "", errors.Wrapf(err, "claim slug %q", candidate)
		}
		if attempt >= e.retries {
			return "", errors.Wrapf(err, "claim slug for %q: retries exhausted after %d conflicts", base, attempt+1)
		}
	}
}
