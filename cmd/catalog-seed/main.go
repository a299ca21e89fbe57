// Command catalog-seed loads products into PostgreSQL, generating a unique
// permalink for each through the slug ensurer. Safe to re-run: every run
// inserts fresh products with the next free permalink suffix.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-engine/internal/catalog"
	"github.com/xenking/promo-engine/internal/storage/postgres"
)

type productJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Permalink string          `json:"permalink,omitempty"`
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, cfg *Config) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return seedProducts(ctx, catalog.NewService(postgres.NewCatalogStore(pool)), cfg.ProductsFile)
}

func seedProducts(ctx context.Context, svc *catalog.Service, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("creating products", slog.Int("count", len(products)))

	for _, p := range products {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}

		created, err := svc.Create(ctx, catalog.Product{
			ID:        id,
			Name:      p.Name,
			Price:     p.Price,
			Permalink: p.Permalink,
		})
		if err != nil {
			return errors.Wrapf(err, "create product %q", p.Name)
		}

		slog.Info("created product",
			slog.String("id", created.ID),
			slog.String("name", created.Name),
			slog.String("permalink", created.Permalink),
		)
	}

	return nil
}
