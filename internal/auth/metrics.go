// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthAttempts is the counter for dispatched verification attempts by
// terminal outcome. Use RegisterMetrics to register this with a Prometheus
// registry.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nickgate_auth_attempts_total",
		Help: "Total number of external authentication attempts by outcome",
	},
	[]string{"outcome"},
)

// AuthDuration is the histogram for dispatch-to-outcome latency.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "nickgate_auth_duration_seconds",
		Help:    "External authentication latency from dispatch to outcome",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// AccountsRegistered counts local accounts materialized by first-time
// external logins.
var AccountsRegistered = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "nickgate_accounts_registered_total",
		Help: "Total number of local accounts created on first external login",
	},
)

// RegisterMetrics registers auth package metrics with the given Prometheus
// registry. Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(AuthDuration)
	reg.MustRegister(AccountsRegistered)
}

// recordOutcome records one terminal outcome and its latency.
func recordOutcome(outcome Outcome, started time.Time) {
	label := outcome.String()
	AuthAttempts.WithLabelValues(label).Inc()
	AuthDuration.WithLabelValues(label).Observe(time.Since(started).Seconds())
}
