package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lyrics_worker"

const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeSkipped    = "skipped"

	SearchHit         = "hit"
	SearchMiss        = "miss"
	SearchRateLimited = "rate_limited"
	SearchError       = "error"

	BatchCompleted = "completed"
	BatchFailed    = "failed"
)

type Metrics struct {
	tracks        *prometheus.CounterVec
	searches      *prometheus.CounterVec
	retries       prometheus.Counter
	batches       *prometheus.CounterVec
	batchDuration prometheus.Histogram
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		tracks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_total",
			Help:      "Tracks processed, by outcome.",
		}, []string{"outcome"}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_searches_total",
			Help:      "Lyrics provider searches, by result.",
		}, []string{"result"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Searches retried after a rate-limit response.",
		}),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Playlist batches, by final status.",
		}, []string{"status"}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a playlist batch.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// Nop returns metrics bound to a throwaway registry.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) TrackProcessed(outcome string) {
	m.tracks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ProviderSearch(result string) {
	m.searches.WithLabelValues(result).Inc()
}

func (m *Metrics) ProviderRetry() {
	m.retries.Inc()
}

func (m *Metrics) BatchFinished(status string, elapsed time.Duration) {
	m.batches.WithLabelValues(status).Inc()
	m.batchDuration.Observe(elapsed.Seconds())
}
