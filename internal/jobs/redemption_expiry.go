package jobs

import (
	"context"
	"log/slog"
	"time"

	"tiketku/internal/metrics"
	"tiketku/internal/repository"
)

// RedemptionExpiryJob expires pending claim and attendance redemptions
// once their slot has ended.
type RedemptionExpiryJob struct {
	bookingRepo *repository.BookingRepository
	interval    time.Duration
	stop        chan struct{}
}

func NewRedemptionExpiryJob(bookingRepo *repository.BookingRepository, interval time.Duration) *RedemptionExpiryJob {
	return &RedemptionExpiryJob{
		bookingRepo: bookingRepo,
		interval:    interval,
		stop:        make(chan struct{}),
	}
}

func (j *RedemptionExpiryJob) Start(ctx context.Context) {
	slog.Info("Starting redemption expiry sweeper", "interval", j.interval.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				slog.Error("Redemption expiry sweep failed", "error", err)
			}
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (j *RedemptionExpiryJob) Stop() {
	close(j.stop)
}

func (j *RedemptionExpiryJob) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("redemption_expiry").Observe(time.Since(start).Seconds())
	}()

	expired, err := j.bookingRepo.ExpirePendingRedemptions(ctx, start)
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		slog.Info("Redemption expiry sweep completed", "expired", expired)
	}

	return expired, nil
}
