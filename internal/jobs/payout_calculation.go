package jobs

import (
	"context"
	"log/slog"
	"time"

	"tiketku/internal/metrics"
	"tiketku/internal/service"
)

// PayoutCalculationJob aggregates payouts for slots that have ended
// since the last run. Safe to re-run; existing payout rows are skipped.
type PayoutCalculationJob struct {
	payouts  *service.PayoutService
	interval time.Duration
	stop     chan struct{}
}

func NewPayoutCalculationJob(payouts *service.PayoutService, interval time.Duration) *PayoutCalculationJob {
	return &PayoutCalculationJob{
		payouts:  payouts,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *PayoutCalculationJob) Start(ctx context.Context) {
	slog.Info("Starting payout calculation sweeper", "interval", j.interval.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				slog.Error("Payout calculation sweep failed", "error", err)
			}
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (j *PayoutCalculationJob) Stop() {
	close(j.stop)
}

func (j *PayoutCalculationJob) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("payout_calculation").Observe(time.Since(start).Seconds())
	}()

	resp, err := j.payouts.CalculateEligible(ctx, start)
	if err != nil {
		return err
	}

	if resp.SlotsProcessed > 0 || resp.SlotsFailed > 0 {
		slog.Info("Payout calculation sweep completed",
			"processed", resp.SlotsProcessed,
			"failed", resp.SlotsFailed)
	}

	return nil
}
