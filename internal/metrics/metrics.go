// Package metrics holds the listing domain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "listing_proxy"

var (
	// ListingOperations counts orchestrated operations by op and result.
	ListingOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "listing",
		Name:      "operations_total",
		Help:      "Total number of listing operations by operation and result.",
	}, []string{"op", "result"})

	QuotaRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quota",
		Name:      "rejections_total",
		Help:      "Total number of creations rejected by the tier quota.",
	}, []string{"tier"})

	ImageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "images",
		Name:      "operations_total",
		Help:      "Total number of image uploads and deletions by result.",
	}, []string{"op", "result"})

	Compensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "saga",
		Name:      "compensations_total",
		Help:      "Total number of compensating actions by step and result.",
	}, []string{"step", "result"})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
