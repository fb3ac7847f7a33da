package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/ridgelinevc/portfolio-backend/internal/bootstrap"
	"github.com/ridgelinevc/portfolio-backend/internal/config"
	"github.com/ridgelinevc/portfolio-backend/pkg/logger"
)

var (
	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "portfolioctl",
	Short: "Operator tooling for the portfolio metrics backend",
	Long:  "Applies schema migrations, seeds demo portfolios, and exports company metric grids without going through the HTTP API.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		log = logger.New(cfg.Log.Level)
		return nil
	},
}

// openPool connects straight to the database with the api server's pool
// settings.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	return bootstrap.InitPostgres(ctx, cfg.Database)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
