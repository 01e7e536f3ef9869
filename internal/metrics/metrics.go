package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store operations by host operation name
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestdist_operations_total",
			Help: "Total number of store operations",
		},
		[]string{"operation"},
	)

	StoreEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "guestdist_store_entries",
			Help: "Number of entries per store resource",
		},
		[]string{"resource"}, // "guests", "thematics", "other_guests"
	)

	// Ranking
	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guestdist_rank_duration_seconds",
			Help:    "Duration of ranking passes in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	RankResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guestdist_rank_results",
			Help:    "Number of distances returned per ranking pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	PairsFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guestdist_pairs_filtered_total",
			Help: "Total number of guest pairs dropped for exceeding the distance threshold",
		},
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestdist_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)
)

// RecordOperation counts one host operation
func RecordOperation(operation string) {
	OperationsTotal.WithLabelValues(operation).Inc()
}

// RecordRank records a finished ranking pass
func RecordRank(duration time.Duration, results, filtered int) {
	RankDuration.Observe(duration.Seconds())
	RankResults.Observe(float64(results))
	PairsFiltered.Add(float64(filtered))
}

// RecordStoreSize publishes resource sizes
func RecordStoreSize(guests, thematics, otherGuests int) {
	StoreEntries.WithLabelValues("guests").Set(float64(guests))
	StoreEntries.WithLabelValues("thematics").Set(float64(thematics))
	StoreEntries.WithLabelValues("other_guests").Set(float64(otherGuests))
}

// RecordHTTPRequest counts one served request
func RecordHTTPRequest(method, route string, status int) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
