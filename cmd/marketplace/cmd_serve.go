package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketplace/internal/http/handlers"
	applog "marketplace/internal/log"
	"marketplace/internal/metrics"
)

// marketplace serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := boot()
		if err != nil {
			return err
		}
		defer db.Close()
		defer applog.Sync()

		app := handlers.NewApp(handlers.NewDeps(db, cfg, metrics.New()))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			applog.L().Info("http.listen", zap.String("port", cfg.Port), zap.String("db", cfg.DBDriver))
			errc <- app.Listen(":" + cfg.Port)
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		applog.L().Info("http.shutdown")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
