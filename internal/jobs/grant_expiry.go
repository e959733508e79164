package jobs

import (
	"context"
	"log/slog"
	"time"

	"tiketku/internal/logger"
	"tiketku/internal/messaging"
	"tiketku/internal/metrics"
	"tiketku/internal/models"
	"tiketku/internal/repository"
)

// GrantExpiryJob sweeps expired credit grants: each due grant is zeroed
// and its remaining balance reversed out of the wallet. Grants are
// processed one by one so a single bad row never blocks the sweep.
type GrantExpiryJob struct {
	grantRepo  *repository.GrantRepository
	natsClient *messaging.NATSClient
	interval   time.Duration
	stop       chan struct{}
}

func NewGrantExpiryJob(grantRepo *repository.GrantRepository, natsClient *messaging.NATSClient, interval time.Duration) *GrantExpiryJob {
	return &GrantExpiryJob{
		grantRepo:  grantRepo,
		natsClient: natsClient,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

func (j *GrantExpiryJob) Start(ctx context.Context) {
	slog.Info("Starting grant expiry sweeper", "interval", j.interval.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				slog.Error("Grant expiry sweep failed", "error", err)
			}
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (j *GrantExpiryJob) Stop() {
	close(j.stop)
}

// RunOnce performs one sweep and returns the number of grants expired.
func (j *GrantExpiryJob) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("grant_expiry").Observe(time.Since(start).Seconds())
	}()

	due, err := j.grantRepo.ListDue(ctx, start)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, grant := range due {
		forfeitedFree, forfeitedPaid, walletID, err := j.grantRepo.Expire(ctx, grant.ID)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to expire grant",
				"error", err,
				"grant_id", grant.ID)
			continue
		}
		if forfeitedFree == 0 && forfeitedPaid == 0 {
			continue
		}
		expired++

		metrics.GrantsExpired.Inc()
		metrics.CreditsForfeited.WithLabelValues("free").Add(float64(forfeitedFree))
		metrics.CreditsForfeited.WithLabelValues("paid").Add(float64(forfeitedPaid))

		event := models.GrantExpiredEvent{
			GrantID:       grant.ID,
			WalletID:      walletID,
			ForfeitedFree: forfeitedFree,
			ForfeitedPaid: forfeitedPaid,
			Timestamp:     time.Now(),
		}
		if err := j.natsClient.Publish(models.EventGrantExpired, event); err != nil {
			// Log error but don't fail the sweep
			logger.WithContext(ctx).Error("Failed to publish grant expired event",
				"error", err,
				"grant_id", grant.ID,
				"event_type", models.EventGrantExpired)
		}
	}

	if expired > 0 {
		slog.Info("Grant expiry sweep completed", "expired", expired, "due", len(due))
	}

	return expired, nil
}
