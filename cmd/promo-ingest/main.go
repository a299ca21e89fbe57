// Command promo-ingest loads promotion definitions from gzipped JSON-lines
// feed files into PostgreSQL. Feeds from different marketing sources may
// repeat coupon codes; a bloom filter catches cross-feed duplicates cheaply
// before the database's unique index would reject them.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-engine/internal/domain/promotion"
	"github.com/xenking/promo-engine/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing promotion feed files")
	flag.StringVar(&pattern, "pattern", "promofeed*.gz", "glob pattern for feed files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, pattern, databaseURL); err != nil {
		slog.Error("promotion ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promotion ingest completed successfully")
}

func run(ctx context.Context, dataDir, pattern, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, pattern))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no feed files matching %q in %s", pattern, dataDir)
	}

	slog.Info("parsing feeds", slog.Int("files", len(files)))

	promos, err := parseFeeds(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse feeds")
	}

	slog.Info("promotions parsed", slog.Int("count", len(promos)))

	if len(promos) == 0 {
		slog.Info("no promotions to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writePromotions(ctx, postgres.NewPromotionStore(pool), promos)
}

// parseFeeds streams every feed file concurrently and merges the results.
// Promotions whose coupon code was already seen in any feed are dropped:
// first feed wins.
func parseFeeds(ctx context.Context, files []string) ([]*promotion.Promotion, error) {
	var (
		mu         sync.Mutex
		seenCodes  = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		merged     []*promotion.Promotion
		duplicates int
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			var count int
			err := streamGzFile(ctx, f, func(line []byte) error {
				p, err := decodePromotion(line)
				if err != nil {
					return errors.Wrapf(err, "line %d", count+1)
				}
				count++
				if count%progressEvery == 0 {
					slog.Info("feed progress", slog.String("file", f), slog.Int("lines", count))
				}

				mu.Lock()
				defer mu.Unlock()
				if p.Code != "" && seenCodes.TestOrAddString(p.Code) {
					duplicates++
					return nil
				}
				merged = append(merged, p)
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "parse feed %s", f)
			}

			slog.Info("feed complete", slog.String("file", f), slog.Int("lines", count))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if duplicates > 0 {
		slog.Warn("duplicate coupon codes dropped", slog.Int("count", duplicates))
	}

	return merged, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writePromotions upserts all parsed promotions into the database.
func writePromotions(ctx context.Context, store *postgres.PromotionStore, promos []*promotion.Promotion) error {
	slog.Info("writing promotions to database", slog.Int("count", len(promos)))

	for i, p := range promos {
		if err := store.Upsert(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert promotion %s", p.ID)
		}

		if (i+1)%100 == 0 || i+1 == len(promos) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(promos)))
		}
	}

	return nil
}
