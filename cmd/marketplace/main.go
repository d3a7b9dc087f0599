package main

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"marketplace/internal/config"
	applog "marketplace/internal/log"
	"marketplace/internal/repos"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "marketplace",
	Short:         "Marketplace backend: catalog, price list import, baskets and orders",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(orderStatusCmd)
}

// boot loads config, sets up logging and opens the database.
func boot() (config.Config, *sqlx.DB, error) {
	cfg := config.Load()
	if err := applog.Init(cfg.AppEnv, cfg.LogLevel); err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return cfg, nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return cfg, db, nil
}
