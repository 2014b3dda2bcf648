package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineMetrics are the engine's Prometheus instruments. One instance per
// process; promauto registers on the default registry.
type EngineMetrics struct {
	CandidateRequests  *prometheus.CounterVec
	CandidateLatency   *prometheus.HistogramVec
	CandidatesReturned prometheus.Histogram

	RefreshCyclesTotal   prometheus.Counter
	RefreshCyclesSkipped prometheus.Counter
	UsersRefreshed       prometheus.Counter

	PickGenerationRuns prometheus.Counter

	MatchesCreated  prometheus.Counter
	SwipeEventsSeen *prometheus.CounterVec

	SuggestionsDenied prometheus.Counter
}

func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		CandidateRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_candidate_requests_total",
			Help: "Candidate requests by strategy used",
		}, []string{"strategy"}),

		CandidateLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matching_candidate_latency_seconds",
			Help:    "Candidate request latency by strategy",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"strategy"}),

		CandidatesReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "matching_candidates_returned",
			Help:    "Number of candidates returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		}),

		RefreshCyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matching_refresh_cycles_total",
			Help: "Completed background refresh cycles",
		}),

		RefreshCyclesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matching_refresh_cycles_skipped_total",
			Help: "Refresh cycles skipped by the CPU guard",
		}),

		UsersRefreshed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matching_users_refreshed_total",
			Help: "Users processed by the background refresher",
		}),

		PickGenerationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matching_pick_generation_runs_total",
			Help: "Completed daily pick generation runs",
		}),

		MatchesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matching_matches_created_total",
			Help: "Mutual matches recorded",
		}),

		SwipeEventsSeen: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "matching_swipe_events_total",
			Help: "Swipe events consumed by outcome",
		}, []string{"outcome"}),

		SuggestionsDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "matching_suggestions_denied_total",
			Help: "Suggestion requests denied by the daily limiter",
		}),
	}
}
