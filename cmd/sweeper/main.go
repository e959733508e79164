package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tiketku/internal/cache"
	"tiketku/internal/config"
	"tiketku/internal/database"
	"tiketku/internal/external"
	"tiketku/internal/jobs"
	"tiketku/internal/logger"
	"tiketku/internal/messaging"
	"tiketku/internal/repository"
	"tiketku/internal/service"
	"tiketku/internal/settings"
)

// The sweeper runs the periodic maintenance jobs: scheduled conversion
// activation, credit grant expiry, redemption expiry and payout
// calculation.
func main() {
	cfg := config.Load()
	cfg.NATS.ClientID = "tiketku-sweeper"

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting sweeper...")

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	valkeyClient, err := cache.NewValkeyClient()
	if err != nil {
		slog.Warn("Valkey unavailable, running without cache", "error", err)
		valkeyClient = nil
	}

	repos := repository.NewRepositories(db)
	store := settings.NewStore(repos.Settings, cfg.Settings)
	paymentClient := external.NewPaymentClient(cfg.Payment)
	notifierClient := external.NewNotifierClient(cfg.Notifier)
	services := service.NewServices(repos, natsClient, valkeyClient, paymentClient, notifierClient, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conversionJob := jobs.NewConversionActivationJob(services.Conversions, cfg.ConversionSweepInterval)
	grantJob := jobs.NewGrantExpiryJob(repos.Grants, natsClient, cfg.GrantSweepInterval)
	redemptionJob := jobs.NewRedemptionExpiryJob(repos.Bookings, cfg.RedemptionSweepInterval)
	payoutJob := jobs.NewPayoutCalculationJob(services.Payouts, cfg.PayoutSweepInterval)

	go conversionJob.Start(ctx)
	go grantJob.Start(ctx)
	go redemptionJob.Start(ctx)
	go payoutJob.Start(ctx)

	slog.Info("Sweeper started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down sweeper...")

	conversionJob.Stop()
	grantJob.Stop()
	redemptionJob.Stop()
	payoutJob.Stop()
	cancel()

	slog.Info("Sweeper stopped")
}
