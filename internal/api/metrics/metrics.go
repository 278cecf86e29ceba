// Package metrics defines the custom Prometheus metrics for the account
// API. It is the single source of truth for metric names, labels, and help
// strings. Metrics register themselves with the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// CreatedTotal counts successful signups.
var CreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of accounts created.",
	},
)

// SigninsTotal counts signin attempts.
// Label:
//   - result: "success", "wrong_credentials", "not_verified", "error"
var SigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of signin attempts, labelled by result.",
	},
	[]string{"result"},
)

// VerificationsTotal counts verification attempts.
// Label:
//   - result: "success" or "invalid_token"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Total number of verification attempts, labelled by result.",
	},
	[]string{"result"},
)

// NotificationsTotal counts verification-email delivery outcomes.
// Label:
//   - result: "sent", "skipped" (already sent), or "failed"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of verification notices, labelled by delivery result.",
	},
	[]string{"result"},
)

// NotifyQueueDepth tracks pending notices per dispatcher worker.
// Label:
//   - worker_id: numeric worker index ("0", "1", …)
var NotifyQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notify_queue_depth",
		Help:      "Current number of notices pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
