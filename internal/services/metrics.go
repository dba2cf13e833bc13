package services

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardrobe",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Remote wardrobe calls by collection, operation and outcome.",
		},
		[]string{"collection", "op", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wardrobe",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Remote wardrobe call latency, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"collection", "op"},
	)

	imagesResizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wardrobe",
			Subsystem: "client",
			Name:      "images_resized_total",
			Help:      "Uploads downscaled before sending.",
		},
	)
)

// observe records one finished call. outcome is "ok", "validation" or the failure kind.
func observe(collection string, op Op, start time.Time, err error) {
	requestDuration.WithLabelValues(collection, string(op)).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(collection, string(op), outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind.String()
	}
	return "validation"
}
