package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_cycles_total",
		Help: "Total completed processing cycles",
	})
	CycleFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_cycle_failures_total",
		Help: "Total processing cycles abandoned on fatal error",
	})
	CycleDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracking_cycle_duration_seconds",
		Help:    "Wall time of one full processing cycle",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	TrucksProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_trucks_processed_total",
		Help: "Trucks fully evaluated across all cycles",
	})
	TrucksSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_trucks_skipped_total",
		Help: "Trucks skipped for missing or invalid position data",
	})
	PersistenceErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_persistence_errors_total",
		Help: "Tracking record upserts that failed",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_cache_hits_total",
		Help: "Snapshot reads served from the TTL cache",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_cache_misses_total",
		Help: "Snapshot reads that triggered a processing cycle",
	})
	CriticalTrucks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracking_critical_trucks",
		Help: "Critical-level trucks in the latest snapshot",
	})
)

func init() {
	prometheus.MustRegister(CyclesTotal)
	prometheus.MustRegister(CycleFailuresTotal)
	prometheus.MustRegister(CycleDurationSeconds)
	prometheus.MustRegister(TrucksProcessedTotal)
	prometheus.MustRegister(TrucksSkippedTotal)
	prometheus.MustRegister(PersistenceErrorsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(CriticalTrucks)
}

// Handler exposes the registered metrics for Prometheus scraping.
func Handler() http.Handler { return promhttp.Handler() }
