// Package metrics exposes Prometheus collectors for the resolution service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pageFetchesTotal        *prometheus.CounterVec
	pageFetchDurationSecond *prometheus.HistogramVec
	cacheLookupsTotal       *prometheus.CounterVec
	parseFailuresTotal      prometheus.Counter
	resolutionsTotal        *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pageFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_page_fetches_total",
				Help: "Total number of external page fetches, labeled by transport and status.",
			},
			[]string{"transport", "status"},
		)

		pageFetchDurationSecond = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resolver_page_fetch_duration_seconds",
				Help:    "Histogram of external page fetch latencies, labeled by transport.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"transport"},
		)

		cacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_cache_lookups_total",
				Help: "Total number of page cache lookups, labeled by outcome (hit/miss).",
			},
			[]string{"outcome"},
		)

		parseFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "resolver_parse_failures_total",
				Help: "Total number of pages that could not be parsed into a snapshot.",
			},
		)

		resolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_resolutions_total",
				Help: "Total number of resolutions, labeled by outcome (local/external/placeholder).",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one external page fetch.
func ObserveFetch(transport, status string, duration time.Duration) {
	if pageFetchesTotal == nil {
		return
	}
	pageFetchesTotal.WithLabelValues(transport, status).Inc()
	pageFetchDurationSecond.WithLabelValues(transport).Observe(duration.Seconds())
}

// ObserveCacheLookup records a page cache hit or miss.
func ObserveCacheLookup(hit bool) {
	if cacheLookupsTotal == nil {
		return
	}
	if hit {
		cacheLookupsTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}

// ObserveParseFailure increments the unparseable page counter.
func ObserveParseFailure() {
	if parseFailuresTotal == nil {
		return
	}
	parseFailuresTotal.Inc()
}

// ObserveResolution increments the resolution counter for the given outcome.
func ObserveResolution(outcome string) {
	if resolutionsTotal == nil {
		return
	}
	resolutionsTotal.WithLabelValues(outcome).Inc()
}
