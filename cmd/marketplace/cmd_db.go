package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	"marketplace/internal/pricelist"
	"marketplace/internal/repos"
	"marketplace/internal/services"
)

// marketplace migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := boot()
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Printf("schema up to date (%s)\n", cfg.DBDriver)
		return nil
	},
}

var importFlags struct {
	email string
	url   string
}

// marketplace import --email seller@example.com --url https://.../list.yaml
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a partner price list from a URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := boot()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		seller, err := repos.NewUserRepo(db).ByEmail(ctx, importFlags.email)
		if err != nil {
			return fmt.Errorf("seller %s: %w", importFlags.email, err)
		}
		svc := services.NewImportService(db, pricelist.NewFetcher(cfg.ImportTimeout, cfg.ImportMaxBytes), metrics.New())
		res, err := svc.ImportURL(ctx, seller, importFlags.url)
		if err != nil {
			return err
		}
		fmt.Printf("shop %d: %d offers in %d categories (%d retired, %d basket lines dropped)\n",
			res.ShopID, res.Offers, res.Categories, res.Retired, res.DroppedBasketLines)
		return nil
	},
}

var statusFlags struct {
	id     int64
	status string
}

// marketplace order-status --id 12 --status confirmed
var orderStatusCmd = &cobra.Command{
	Use:   "order-status",
	Short: "Move a placed order to its next status (or cancel it)",
	RunE: func(cmd *cobra.Command, args []string) error {
		to, ok := domain.ParseOrderStatus(statusFlags.status)
		if !ok {
			return fmt.Errorf("unknown status %q", statusFlags.status)
		}
		_, db, err := boot()
		if err != nil {
			return err
		}
		defer db.Close()

		o, err := services.NewOrderService(db, nil).Advance(context.Background(), statusFlags.id, to)
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("order %d: %s", statusFlags.id, ve.Fields["status"])
		}
		if err != nil {
			return err
		}
		fmt.Println("order " + strconv.FormatInt(o.ID, 10) + " is now " + string(o.Status))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFlags.email, "email", "", "e-mail of the partner account")
	importCmd.Flags().StringVar(&importFlags.url, "url", "", "price list URL")
	_ = importCmd.MarkFlagRequired("email")
	_ = importCmd.MarkFlagRequired("url")

	orderStatusCmd.Flags().Int64Var(&statusFlags.id, "id", 0, "order id")
	orderStatusCmd.Flags().StringVar(&statusFlags.status, "status", "", "target status")
	_ = orderStatusCmd.MarkFlagRequired("id")
	_ = orderStatusCmd.MarkFlagRequired("status")
}
