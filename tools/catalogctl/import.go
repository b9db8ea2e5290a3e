package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/na4oman/samsung-shop/models"
	"github.com/na4oman/samsung-shop/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type importOptions struct {
	store  storeOptions
	actor  string
	dryRun bool
	strict bool
}

// dryRunReport lists the rows that would be rejected by field validation.
type dryRunReport struct {
	TotalRows int                  `json:"totalRows"`
	Valid     int                  `json:"valid"`
	Invalid   []models.ImportError `json:"invalid"`
}

func newImportCmd(log *zap.Logger) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV, XLSX or JSON product file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts, log)
		},
	}
	opts.store.bind(cmd, "", "dynamodb")
	cmd.Flags().StringVar(&opts.actor, "actor", envOr("USER", "catalogctl"), "Actor recorded on the import")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Only parse and validate; nothing is written")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when any row fails")
	return cmd
}

func runImport(cmd *cobra.Command, path string, opts importOptions, log *zap.Logger) error {
	source, err := services.SourceFromFilename(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	parsed, err := services.ParseProductSheet(f, source)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	inputs := parsed.Inputs
	log.Info("Parsed import file", zap.String("file", path), zap.Int("rows", len(inputs)))

	if opts.dryRun {
		report := validateOnly(inputs, parsed.Rows)
		if err := writeJSON(cmd, report); err != nil {
			return err
		}
		if opts.strict && len(report.Invalid) > 0 {
			return fmt.Errorf("%d of %d rows are invalid", len(report.Invalid), report.TotalRows)
		}
		return nil
	}

	ctx := cmd.Context()
	repo, release, err := openStore(ctx, opts.store, log)
	if err != nil {
		return err
	}
	defer release()

	importer := services.NewImportService(repo, services.NewDuplicateDetector(repo, log), log)
	result := importer.ImportBatchWithMeta(ctx, inputs, services.ImportMeta{
		Source:     models.SourceCLI,
		Actor:      opts.actor,
		SourceRows: parsed.Rows,
	})
	if err := writeJSON(cmd, result); err != nil {
		return err
	}
	if opts.strict && len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d rows failed", len(result.Failed), result.TotalProcessed)
	}
	return nil
}

func validateOnly(inputs []models.ProductInput, rows []int) dryRunReport {
	report := dryRunReport{TotalRows: len(inputs), Invalid: []models.ImportError{}}
	for i, in := range inputs {
		res := services.ValidateProduct(in)
		if res.IsValid {
			report.Valid++
			continue
		}
		failure := models.ImportError{
			Product: in,
			Error:   strings.Join(res.Errors, "; "),
			Index:   i,
		}
		if i < len(rows) {
			failure.Row = rows[i]
		}
		report.Invalid = append(report.Invalid, failure)
	}
	return report
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
