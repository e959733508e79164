package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"tiketku/internal/config"
	"tiketku/internal/database"
	"tiketku/internal/external"
	"tiketku/internal/logger"
	"tiketku/internal/messaging"
	"tiketku/internal/repository"
	"tiketku/internal/service"
	"tiketku/internal/settings"
)

var (
	purchaseAge = flag.Duration("purchase-age", time.Hour, "Minimum age of pending purchases to re-check against the gateway")
	skipWallets = flag.Bool("skip-wallets", false, "Skip the wallet cache vs ledger comparison")
)

// reconcile is a one-shot maintenance run: it re-sums every wallet's
// ledger against the cached balances and re-checks purchases stuck
// before completion with the payment gateway.
func main() {
	flag.Parse()

	cfg := config.Load()
	cfg.NATS.ClientID = "tiketku-reconcile"

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting reconciliation run")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	repos := repository.NewRepositories(db)
	store := settings.NewStore(repos.Settings, cfg.Settings)
	paymentClient := external.NewPaymentClient(cfg.Payment)
	notifierClient := external.NewNotifierClient(cfg.Notifier)
	services := service.NewServices(repos, natsClient, nil, paymentClient, notifierClient, store)

	ctx := context.Background()
	exitCode := 0

	if !*skipWallets {
		results, err := services.Wallets.Reconcile(ctx)
		if err != nil {
			log.Fatalf("Wallet reconciliation failed: %v", err)
		}

		inconsistent := 0
		for _, r := range results {
			if !r.Consistent {
				inconsistent++
			}
		}

		slog.Info("Wallet reconciliation completed",
			"wallets", len(results),
			"inconsistent", inconsistent)

		if inconsistent > 0 {
			exitCode = 1
		}
	}

	settled, err := services.Wallets.ReconcilePendingPurchases(ctx, *purchaseAge)
	if err != nil {
		log.Fatalf("Purchase reconciliation failed: %v", err)
	}
	slog.Info("Purchase reconciliation completed", "settled", settled)

	os.Exit(exitCode)
}
