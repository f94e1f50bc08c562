// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_pricing",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "order_pricing",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	breakdownsComputed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_pricing",
		Name:      "breakdowns_computed_total",
		Help:      "Price breakdowns computed, by grand total variant.",
	}, []string{"variant"})

	taxLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_pricing",
		Name:      "tax_lookups_total",
		Help:      "Product tax lookups by result: cache_hit, fetched, missing, failed.",
	}, []string{"result"})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_pricing",
		Name:      "order_status_transitions_total",
		Help:      "Order status transitions applied.",
	}, []string{"from", "to"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "order_pricing",
		Name:      "notifications_total",
		Help:      "Shipped notifications by channel and outcome.",
	}, []string{"channel", "outcome"})
)

// Tax lookup results.
const (
	TaxLookupCacheHit = "cache_hit"
	TaxLookupFetched  = "fetched"
	TaxLookupMissing  = "missing"
	TaxLookupFailed   = "failed"
)

func ObserveHTTPRequest(method, route, status string, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func IncBreakdown(variant string) {
	breakdownsComputed.WithLabelValues(variant).Inc()
}

func IncTaxLookup(result string) {
	taxLookups.WithLabelValues(result).Inc()
}

func IncStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

func IncNotification(channel, outcome string) {
	notifications.WithLabelValues(channel, outcome).Inc()
}
