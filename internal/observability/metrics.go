// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth operation outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeFieldError = "field_error"
	OutcomeError      = "error"
)

// Metrics holds the application's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AuthOperations  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wabbit_auth_operations_total",
				Help: "Auth operations by operation name and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wabbit_http_requests_total",
				Help: "HTTP requests by status code",
			},
			[]string{"status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wabbit_operation_duration_seconds",
				Help:    "Time spent executing an API operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(m.AuthOperations, m.HTTPRequests, m.RequestDuration)
	return m
}

// RecordAuth counts one operation with its outcome.
func (m *Metrics) RecordAuth(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordRequest counts one HTTP response.
func (m *Metrics) RecordRequest(status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveDuration records how long operation took.
func (m *Metrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}
