package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiketku_bookings_confirmed_total",
		Help: "Bookings settled successfully.",
	})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiketku_bookings_rejected_total",
		Help: "Bookings rejected at settlement, by reason.",
	}, []string{"reason"})

	BookingsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiketku_bookings_cancelled_total",
		Help: "Bookings cancelled, split by refund outcome.",
	}, []string{"outcome"})

	CreditsDebited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiketku_credits_debited_total",
		Help: "Credits debited from wallets, by credit kind.",
	}, []string{"kind"})

	CreditsCredited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiketku_credits_credited_total",
		Help: "Credits added to wallets, by transaction type.",
	}, []string{"type"})

	GrantsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiketku_grants_expired_total",
		Help: "Credit grants swept after their expiry time.",
	})

	CreditsForfeited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiketku_credits_forfeited_total",
		Help: "Credits forfeited by the expiry sweep, by credit kind.",
	}, []string{"kind"})

	PayoutsCalculated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiketku_payouts_calculated_total",
		Help: "Payout rows created by the calculation job.",
	})

	PayoutCalculationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiketku_payout_calculation_failures_total",
		Help: "Slots whose payout calculation failed and was skipped.",
	})

	ConversionActivations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiketku_conversion_activations_total",
		Help: "Conversion rate activations, manual and scheduled.",
	})

	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiketku_sweep_duration_seconds",
		Help:    "Wall time of one background sweep run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
)
