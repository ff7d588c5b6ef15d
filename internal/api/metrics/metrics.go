// Package metrics defines and registers the custom Prometheus metrics of the
// passport API. HTTP request metrics come from echoprometheus; this package
// only carries the domain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "passport"

// Result label values shared by every counter.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultLimited  = "limited"
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "rejected" (bad credentials / unknown user) or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "rejected" (duplicate / invalid input) or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// SessionsRevokedTotal counts logout attempts.
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of session revocations, by result.",
	},
	[]string{"result"},
)

// VerificationCodesTotal counts verification code requests.
// Label:
//   - result: "success", "limited" (window cap reached) or "error"
var VerificationCodesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_codes_total",
		Help:      "Total number of verification code requests, by result.",
	},
	[]string{"result"},
)
