// Command catalogctl imports product files into a catalog store, writes
// import templates and migrates products between stores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/na4oman/samsung-shop/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd(log *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Offline tooling for the product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newImportCmd(log),
		newTemplateCmd(),
		newMigrateCmd(log),
	)
	return root
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(log).ExecuteContext(ctx); err != nil {
		log.Error("catalogctl failed", zap.Error(err))
		stop()
		os.Exit(1)
	}
}
