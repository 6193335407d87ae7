package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemefinder/internal/catalog"
)

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace the Postgres catalog tables with the file or embedded catalog",
		Long: `seed validates the catalog given by --catalog-path (or the embedded dataset)
and writes it to the database at --postgres-url, replacing existing rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if c.cfg.Postgres.URL == "" {
				return errors.New("--postgres-url is required")
			}

			doc, err := catalog.FileSource{Path: c.cfg.Catalog.Path}.Load(ctx)
			if err != nil {
				return err
			}
			// Validate before touching the database.
			cat, err := catalog.New(doc.Schemes)
			if err != nil {
				return err
			}

			db, err := catalog.OpenPostgres(ctx, c.cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := catalog.Seed(ctx, db, doc); err != nil {
				return err
			}
			c.logger.Info("catalog seeded",
				zap.Int("schemes", cat.Len()),
				zap.Int("states", len(doc.Locations.States)),
				zap.String("version", cat.Version()),
			)
			return nil
		},
	}
}
