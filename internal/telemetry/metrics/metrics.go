// Package metrics holds the Prometheus instrumentation for the analysis
// pipeline and the upstream providers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all LeakLens metrics.
type Registry struct {
	// Pipeline
	AnalysisDuration *prometheus.HistogramVec
	AnalysisTotal    *prometheus.CounterVec
	ActiveAnalyses   prometheus.Gauge
	ExposureScore    prometheus.Histogram

	// Providers
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec

	// Cache
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// NewRegistry creates all metrics unregistered.
func NewRegistry() *Registry {
	return &Registry{
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaklens_analysis_duration_seconds",
				Help:    "Duration of each analysis stage in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		AnalysisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaklens_analyses_total",
				Help: "Total wallet analyses by outcome",
			},
			[]string{"outcome"},
		),
		ActiveAnalyses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "leaklens_active_analyses",
				Help: "Number of analyses currently in flight",
			},
		),
		ExposureScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leaklens_exposure_score",
				Help:    "Distribution of computed exposure scores",
				Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaklens_provider_requests_total",
				Help: "Upstream provider requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leaklens_provider_latency_seconds",
				Help:    "Upstream provider request latency in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaklens_cache_hits_total",
				Help: "Cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaklens_cache_misses_total",
				Help: "Cache misses by cache name",
			},
			[]string{"cache"},
		),
	}
}

// Register registers every metric with the given registerer.
func (r *Registry) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.AnalysisDuration,
		r.AnalysisTotal,
		r.ActiveAnalyses,
		r.ExposureScore,
		r.ProviderRequests,
		r.ProviderLatency,
		r.CacheHits,
		r.CacheMisses,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveStage records one pipeline stage duration.
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	r.AnalysisDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveProvider records one upstream request.
func (r *Registry) ObserveProvider(provider, status string, d time.Duration) {
	r.ProviderRequests.WithLabelValues(provider, status).Inc()
	r.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}
