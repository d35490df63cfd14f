// Package metrics defines and registers all custom Prometheus metrics for the
// agentdex API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; the echoprometheus handler mounted on /metrics exposes them.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentdex/platform/internal/core/domain"
)

const namespace = "agentdex"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts authentication outcomes.
// Labels:
//   - event: "register", "login" or "logout"
//   - result: "ok" or an error class (see Result)
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication events, by event and result.",
	},
	[]string{"event", "result"},
)

// ── Transition metrics ────────────────────────────────────────────────────────

// TransitionsTotal counts status-guarded mutations.
// Labels:
//   - entity: "exchange", "activation_code", "order" or "user"
//   - action: the transition action (e.g. "cancel", "redeem", "ban")
//   - result: "ok" or an error class
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of status-guarded transitions attempted, by entity, action and result.",
	},
	[]string{"entity", "action", "result"},
)

// ActivationCodesGeneratedTotal counts codes minted by admins.
var ActivationCodesGeneratedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activation_codes_generated_total",
		Help:      "Total number of activation codes generated.",
	},
)

// ── Upload metrics ────────────────────────────────────────────────────────────

// UploadsTotal counts admin uploads.
// Labels:
//   - content_type: the sniffed content type, or "unknown" on rejection
//   - result: "ok" or an error class
var UploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of image uploads, by content type and result.",
	},
	[]string{"content_type", "result"},
)

// UploadBytes observes the size of accepted uploads.
var UploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upload_bytes",
		Help:      "Size of accepted image uploads in bytes.",
		Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 6), // 16KiB .. 16MiB
	},
)

// ── Catalog metrics ───────────────────────────────────────────────────────────

// CatalogQueriesTotal counts public catalog reads.
// Labels:
//   - query: "agents", "agent", "series", "series_detail" or "owned"
//   - result: "ok" or an error class
var CatalogQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_queries_total",
		Help:      "Total number of catalog queries, by query and result.",
	},
	[]string{"query", "result"},
)

// Result reduces err to a low-cardinality label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrGone):
		return "gone"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}
