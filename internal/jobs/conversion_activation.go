package jobs

import (
	"context"
	"log/slog"
	"time"

	"tiketku/internal/metrics"
	"tiketku/internal/service"
)

// ConversionActivationJob promotes scheduled conversion rates whose
// effective time has arrived.
type ConversionActivationJob struct {
	conversions *service.ConversionService
	interval    time.Duration
	stop        chan struct{}
}

func NewConversionActivationJob(conversions *service.ConversionService, interval time.Duration) *ConversionActivationJob {
	return &ConversionActivationJob{
		conversions: conversions,
		interval:    interval,
		stop:        make(chan struct{}),
	}
}

func (j *ConversionActivationJob) Start(ctx context.Context) {
	slog.Info("Starting conversion activation sweeper", "interval", j.interval.String())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil {
				slog.Error("Conversion activation sweep failed", "error", err)
			}
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (j *ConversionActivationJob) Stop() {
	close(j.stop)
}

func (j *ConversionActivationJob) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("conversion_activation").Observe(time.Since(start).Seconds())
	}()

	activated, err := j.conversions.ApplyScheduledConversions(ctx, start)
	if err != nil {
		return err
	}

	if activated > 0 {
		slog.Info("Scheduled conversions activated", "count", activated)
	}

	return nil
}
