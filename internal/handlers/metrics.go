package handlers

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_http_requests_total",
		Help: "HTTP requests by handler and status code",
	}, []string{"handler", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_http_request_duration_seconds",
		Help:    "HTTP request latency by handler",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})
)

func observe(handler string, code int, start time.Time) {
	requestsTotal.WithLabelValues(handler, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(handler).Observe(time.Since(start).Seconds())
}
