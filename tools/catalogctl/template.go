package main

import (
	"fmt"
	"os"

	"github.com/na4oman/samsung-shop/services"
	"github.com/spf13/cobra"
)

func newTemplateCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an import template with sample rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, filename, err := services.TemplateContentType(format)
			if err != nil {
				return err
			}
			if output == "-" {
				return services.WriteTemplate(cmd.OutOrStdout(), format)
			}
			if output == "" {
				output = filename
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := services.WriteTemplate(f, format); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Template format: csv, xlsx or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default: products_import_template.<format>)")
	return cmd
}
