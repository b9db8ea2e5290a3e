package main

import (
	"fmt"

	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type migrateOptions struct {
	from      storeOptions
	to        storeOptions
	batchSize int
}

// migrationSummary totals a copy between two stores.
type migrationSummary struct {
	Read     int                  `json:"read"`
	Migrated int                  `json:"migrated"`
	Skipped  []models.ImportError `json:"skipped"`
}

func newMigrateCmd(log *zap.Logger) *cobra.Command {
	var opts migrateOptions

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy every product from one store into another",
		Long: "Copies the source catalog through the import pipeline, so rows that\n" +
			"already exist in the destination are skipped as duplicates and a rerun\n" +
			"only writes what is missing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts, log)
		},
	}
	opts.from.bind(cmd, "from-", "mongo")
	opts.to.bind(cmd, "to-", "dynamodb")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 100, "Products per import batch")
	return cmd
}

func runMigrate(cmd *cobra.Command, opts migrateOptions, log *zap.Logger) error {
	if opts.batchSize < 1 {
		return fmt.Errorf("--batch-size must be positive")
	}
	ctx := cmd.Context()

	src, releaseSrc, err := openStore(ctx, opts.from, log)
	if err != nil {
		return fmt.Errorf("source store: %w", err)
	}
	defer releaseSrc()
	dst, releaseDst, err := openStore(ctx, opts.to, log)
	if err != nil {
		return fmt.Errorf("destination store: %w", err)
	}
	defer releaseDst()

	products, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("read source catalog: %w", err)
	}
	if err := dst.EnsureIndexes(ctx); err != nil {
		log.Warn("ensure destination indexes", zap.Error(err))
	}

	importer := services.NewImportService(dst, services.NewDuplicateDetector(dst, log), log)
	summary := migrationSummary{Read: len(products), Skipped: []models.ImportError{}}

	for start := 0; start < len(products); start += opts.batchSize {
		end := min(start+opts.batchSize, len(products))
		inputs := make([]models.ProductInput, 0, end-start)
		for _, p := range products[start:end] {
			inputs = append(inputs, p.Input())
		}

		result := importer.ImportBatchWithMeta(ctx, inputs, services.ImportMeta{Source: models.SourceCLI, Actor: "catalogctl-migrate"})
		summary.Migrated += len(result.Successful)
		for _, f := range result.Failed {
			f.Index += start
			summary.Skipped = append(summary.Skipped, f)
		}
		log.Info("migrated batch",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("written", len(result.Successful)),
			zap.Int("skipped", len(result.Failed)),
		)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return writeJSON(cmd, summary)
}
