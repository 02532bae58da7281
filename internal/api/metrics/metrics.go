// Package metrics defines and registers all custom Prometheus metrics for the
// lending API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics register with the default Prometheus registry at package init; the
// router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lending"

// ── Application metrics ───────────────────────────────────────────────────────

// ApplicationsSubmittedTotal counts submitted applications.
// Label:
//   - tier: the eligibility tier assigned at submission (e.g. "highly_eligible")
var ApplicationsSubmittedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "applications_submitted_total",
		Help:      "Total number of loan applications submitted, by eligibility tier.",
	},
	[]string{"tier"},
)

// ScoringDuration measures how long one eligibility scoring pass takes.
var ScoringDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scoring_duration_seconds",
		Help:      "Duration of a single eligibility scoring computation.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// TransitionsTotal counts applied status transitions.
// Labels:
//   - from: the prior application status
//   - to: the requested application status
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of status transitions applied, by prior and new status.",
	},
	[]string{"from", "to"},
)

// TransitionErrorsTotal counts rejected or failed transition requests.
// Label:
//   - reason: short description of the failure (e.g. "invalid_status", "not_found", "update_failed")
var TransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_errors_total",
		Help:      "Total number of transition requests that were rejected or failed.",
	},
	[]string{"reason"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationQueueDepth tracks the notifications waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
