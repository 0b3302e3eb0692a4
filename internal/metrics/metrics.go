// Package metrics provides Prometheus metrics collection for the API.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "jarviz"
	subsystem = "api"
)

// Version is reported by the info gauge.
var Version = "dev"

var (
	// Using atomic.Pointer for lock-free initialization checks on hot path metrics.
	requestsTotal        atomic.Pointer[prometheus.CounterVec]
	requestDuration      atomic.Pointer[prometheus.HistogramVec]
	authDenialsTotal     atomic.Pointer[prometheus.CounterVec]
	storeOperationsTotal atomic.Pointer[prometheus.CounterVec]
	mailDeliveriesTotal  atomic.Pointer[prometheus.CounterVec]
)

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help},
		labels,
	)
}

// Init initializes all Prometheus metrics and registers them with the provided registry.
// This should be called once at application startup.
func Init(reg prometheus.Registerer) error {
	requestsTotalVec := counterVec("requests_total",
		"Total number of HTTP requests handled by the API", "method", "path", "status")

	requestDurationVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	authDenialsVec := counterVec("auth_denials_total",
		"Total number of rejected credentials and insufficient access levels", "reason")

	storeOpsVec := counterVec("store_operations_total",
		"Total number of statements run against the database", "op", "outcome")

	mailVec := counterVec("mail_deliveries_total",
		"Total number of notification mails sent", "template", "outcome")

	infoGaugeVec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "info",
			Help:      "API version and build information",
		},
		[]string{"version"},
	)

	collectors := []struct {
		name string
		c    prometheus.Collector
	}{
		{"requestsTotal", requestsTotalVec},
		{"requestDuration", requestDurationVec},
		{"authDenialsTotal", authDenialsVec},
		{"storeOperationsTotal", storeOpsVec},
		{"mailDeliveriesTotal", mailVec},
		{"info", infoGaugeVec},
	}
	for _, c := range collectors {
		if err := reg.Register(c.c); err != nil {
			return fmt.Errorf("failed to register %s: %w", c.name, err)
		}
	}
	infoGaugeVec.WithLabelValues(Version).Set(1)

	requestsTotal.Store(requestsTotalVec)
	requestDuration.Store(requestDurationVec)
	authDenialsTotal.Store(authDenialsVec)
	storeOperationsTotal.Store(storeOpsVec)
	mailDeliveriesTotal.Store(mailVec)

	return nil
}

// RecordRequest increments the requests counter for the given method, path, and status code.
// The path should be a route pattern (e.g., "/api/clients/{id}" instead of "/api/clients/123").
func RecordRequest(method, path, statusCode string) {
	if counter := requestsTotal.Load(); counter != nil {
		counter.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordRequestDuration records the latency for a request in seconds.
func RecordRequestDuration(method, path, statusCode string, durationSeconds float64) {
	if histogram := requestDuration.Load(); histogram != nil {
		histogram.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
	}
}

// RecordAuthDenial increments the denials counter for the given reason.
// Reasons: "invalid_token", "forbidden", "bad_master_key".
func RecordAuthDenial(reason string) {
	if counter := authDenialsTotal.Load(); counter != nil {
		counter.WithLabelValues(reason).Inc()
	}
}

// RecordStoreOperation counts a statement by kind ("query", "exec") and outcome.
func RecordStoreOperation(op, outcome string) {
	if counter := storeOperationsTotal.Load(); counter != nil {
		counter.WithLabelValues(op, outcome).Inc()
	}
}

// RecordMailDelivery counts a sent or failed notification mail.
func RecordMailDelivery(template, outcome string) {
	if counter := mailDeliveriesTotal.Load(); counter != nil {
		counter.WithLabelValues(template, outcome).Inc()
	}
}

// Handler returns an HTTP handler for Prometheus metrics in text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler serving the metrics of reg.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// GetMetricsText returns the Prometheus text-format output from a registry.
// This is useful for testing and debugging.
func GetMetricsText(reg prometheus.Gatherer) (string, error) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	HandlerFor(reg).ServeHTTP(w, req)

	body, err := io.ReadAll(w.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metrics output: %w", err)
	}

	return string(body), nil
}
