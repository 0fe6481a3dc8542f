package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"merchant-recon/internal/reconcile/model"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recon_runs_total",
			Help: "Reconciliation runs by outcome",
		},
		[]string{"result"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recon_run_duration_seconds",
			Help:    "Wall time of completed reconciliation runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
	)

	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recon_candidates_total",
			Help: "Match candidates reported, by tier",
		},
		[]string{"tier"},
	)

	UniqueTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recon_unique_records_total",
			Help: "Records reported as unique, by side",
		},
		[]string{"side"},
	)

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recon_geocode_lookups_total",
			Help: "Reverse geocode lookups by result (hit, miss, failure)",
		},
		[]string{"result"},
	)

	GeocodeLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recon_geocode_provider_seconds",
			Help:    "Latency of calls to the reverse geocoding provider",
			Buckets: prometheus.DefBuckets,
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recon_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveRun records the outcome of one engine run. rep is nil on error.
func ObserveRun(rep *model.Report, err error, elapsed time.Duration) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		RunsTotal.WithLabelValues("cancelled").Inc()
		return
	case err != nil:
		RunsTotal.WithLabelValues("error").Inc()
		return
	}
	RunsTotal.WithLabelValues("ok").Inc()
	RunDuration.Observe(elapsed.Seconds())

	s := rep.Summary
	for tier, n := range map[model.Tier]int{
		model.TierHigh:      s.High,
		model.TierMedium:    s.Medium,
		model.TierLow:       s.Low,
		model.TierPotential: s.Potential,
	} {
		CandidatesTotal.WithLabelValues(tier.String()).Add(float64(n))
	}
	UniqueTotal.WithLabelValues(model.Left.String()).Add(float64(s.LeftUnique))
	UniqueTotal.WithLabelValues(model.Right.String()).Add(float64(s.RightUnique))
}
