package catalog_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-engine/internal/catalog"
	"github.com/xenking/promo-engine/internal/storage/memory"
)

func TestService_CreateDerivesPermalinkFromName(t *testing.T) {
	store := memory.NewCatalogStore()
	svc := catalog.NewService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, catalog.Product{
		ID:    "p1",
		Name:  "Ruby on Rails Mug",
		Price: decimal.RequireFromString("15.99"),
	})
	require.NoError(t, err)
	assert.Equal(t, "ruby-on-rails-mug", p.Permalink)

	got, err := store.GetByPermalink(ctx, "ruby-on-rails-mug")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p1", got.ID)
}

func TestService_CreateSequentialSuffixes(t *testing.T) {
	store := memory.NewCatalogStore()
	svc := catalog.NewService(store)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		p, err := svc.Create(ctx, catalog.Product{
			ID:   "p" + strconv.Itoa(i),
			Name: "foo",
		})
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, "foo", p.Permalink)
		} else {
			assert.Equal(t, "foo-"+strconv.Itoa(i), p.Permalink)
		}
	}
}

func TestService_CreatePrefixedNeighborShiftsNumbering(t *testing.T) {
	store := memory.NewCatalogStore()
	svc := catalog.NewService(store)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Create(ctx, catalog.Product{ID: "p" + strconv.Itoa(i), Name: "foo"})
		require.NoError(t, err)
	}

	// "foo a" normalizes to foo-a, which the prefix scan of any later "foo"
	// product also picks up.
	p, err := svc.Create(ctx, catalog.Product{ID: "pa", Name: "foo a"})
	require.NoError(t, err)
	assert.Equal(t, "foo-a", p.Permalink)

	next, err := svc.Create(ctx, catalog.Product{ID: "p12", Name: "foo"})
	require.NoError(t, err)
	assert.Equal(t, "foo-12", next.Permalink)
}

func TestService_CreateVerbatimOverride(t *testing.T) {
	store := memory.NewCatalogStore()
	svc := catalog.NewService(store)
	ctx := context.Background()

	p, err := svc.Create(ctx, catalog.Product{
		ID:        "p1",
		Name:      "Joe's Diner",
		Permalink: "joe's",
	})
	require.NoError(t, err)
	assert.Equal(t, "joe's", p.Permalink)

	p2, err := svc.Create(ctx, catalog.Product{ID: "p2", Permalink: "joe's"})
	require.NoError(t, err)
	assert.Equal(t, "joe's-1", p2.Permalink)
}

func TestService_Relink(t *testing.T) {
	store := memory.NewCatalogStore()
	svc := catalog.NewService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, catalog.Product{ID: "p1", Name: "foobar"})
	require.NoError(t, err)
	require.Equal(t, "foobar", first.Permalink)

	_, err = svc.Create(ctx, catalog.Product{ID: "p2", Name: "fooquux"})
	require.NoError(t, err)

	// Renaming the second product onto an occupied base picks a suffix.
	permalink, err := svc.Relink(ctx, "p2", "foobar")
	require.NoError(t, err)
	assert.Equal(t, "foobar-1", permalink)

	got, err := store.GetByPermalink(ctx, "foobar-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p2", got.ID)
}
