// Package metrics defines and registers all custom Prometheus metrics for the
// access control API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init via promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uac"

// ── Authentication ────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "rejected" (bad credentials), "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration outcomes.
// Label:
//   - result: "created", "replayed", "invalid", "conflict", "key_reused", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by outcome.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts bearer token checks.
// Label:
//   - result: "missing", "valid", "expired", "inactive", "invalid"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// ── Authorization ─────────────────────────────────────────────────────────────

// AuthorizationDecisionsTotal counts guard decisions.
// Labels:
//   - guard: "admin", "manager_or_admin", "any_role"
//   - result: "allowed", "forbidden", "no_role"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of role guard decisions.",
	},
	[]string{"guard", "result"},
)

// RoleAssignmentsTotal counts admin role assignments.
// Label:
//   - result: "assigned", "invalid_role", "not_found", "forbidden", "error"
var RoleAssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_assignments_total",
		Help:      "Total number of role assignment requests, by result.",
	},
	[]string{"result"},
)

// ── Last-login dispatcher ─────────────────────────────────────────────────────

// LastLoginQueueDepth tracks pending last-login writes per worker.
// Label:
//   - worker_id: numeric worker index
var LastLoginQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_login_queue_depth",
		Help:      "Current number of last-login updates pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// LastLoginDroppedTotal counts last-login updates dropped on a full queue.
var LastLoginDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "last_login_dropped_total",
		Help:      "Total number of last-login updates dropped because a worker queue was full.",
	},
)
