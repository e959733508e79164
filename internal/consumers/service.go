package consumers

import (
	"context"
	"log/slog"

	"tiketku/internal/config"
	"tiketku/internal/database"
	"tiketku/internal/external"
	"tiketku/internal/messaging"
	"tiketku/internal/models"
	"tiketku/internal/repository"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	notifier := external.NewNotifierClient(cfg.Notifier)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: NewHandlers(repos, notifier),
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventBookingConfirmed, "consumers", cs.handlers.HandleBookingConfirmed); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventBookingCancelled, "consumers", cs.handlers.HandleBookingCancelled); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventBookingRefunded, "consumers", cs.handlers.HandleBookingRefunded); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventGrantExpired, "consumers", cs.handlers.HandleGrantExpired); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventWalletCredited, "consumers", cs.handlers.HandleWalletCredited); err != nil {
		return err
	}

	if _, err := cs.nats.SubscribeQueue(models.EventPayoutCalculated, "consumers", cs.handlers.HandlePayoutCalculated); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
