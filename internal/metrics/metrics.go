// file: internal/metrics/metrics.go
// version: 1.0.0
// guid: 6f8a0b2c-4d6e-4f8a-9b1c-5d7e9f1a3b5c

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	searchesStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metadata_server",
		Name:      "searches_started_total",
		Help:      "Total number of provider searches started by provider id",
	}, []string{"provider"})
	searchesFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metadata_server",
		Name:      "searches_failed_total",
		Help:      "Total number of provider searches that returned an upstream error",
	}, []string{"provider"})
	searchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "metadata_server",
		Name:      "search_duration_seconds",
		Help:      "Histogram of provider search durations in seconds by provider id",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10), // ~50ms up to tens of seconds
	}, []string{"provider"})

	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metadata_server",
		Name:      "cache_hits_total",
		Help:      "Total cache hits by namespace (search or book)",
	}, []string{"namespace"})
	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metadata_server",
		Name:      "cache_misses_total",
		Help:      "Total cache misses by namespace (search or book)",
	}, []string{"namespace"})
	cacheBypasses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "metadata_server",
		Name:      "cache_bypasses_total",
		Help:      "Total requests that forced a cache bypass via cache=false",
	})

	providersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "metadata_server",
		Name:      "providers_registered",
		Help:      "Current number of registered providers",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searchesStarted, searchesFailed, searchDuration,
			cacheHits, cacheMisses, cacheBypasses, providersGauge)
	})
}

// Search lifecycle helpers
func IncSearchStarted(provider string) { searchesStarted.WithLabelValues(provider).Inc() }
func IncSearchFailed(provider string)  { searchesFailed.WithLabelValues(provider).Inc() }
func ObserveSearchDuration(provider string, d time.Duration) {
	searchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// Cache helpers
func IncCacheHit(namespace string)  { cacheHits.WithLabelValues(namespace).Inc() }
func IncCacheMiss(namespace string) { cacheMisses.WithLabelValues(namespace).Inc() }
func IncCacheBypass()               { cacheBypasses.Inc() }

// SetProviders records the current registry size.
func SetProviders(n int) { providersGauge.Set(float64(n)) }
