package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"schemefinder/internal/catalog"
	"schemefinder/internal/platform/config"
)

// LoadCatalog builds the catalog from the configured source. The Postgres
// connection is closed once the catalog is in memory.
func LoadCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	var src catalog.Source
	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		db, err := catalog.OpenPostgres(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		src = catalog.PostgresSource{DB: db}
	default:
		src = catalog.FileSource{Path: cfg.Catalog.Path}
	}

	cat, err := catalog.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load %s catalog: %w", cfg.Catalog.Source, err)
	}

	logger.Info("catalog loaded",
		zap.String("source", cfg.Catalog.Source),
		zap.String("path", cfg.Catalog.Path),
		zap.Int("schemes", cat.Len()),
		zap.String("version", cat.Version()),
	)
	return cat, nil
}
