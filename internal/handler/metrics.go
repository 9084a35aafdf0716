package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/solidario/solidario/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
//
// GET /internal/metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "solidario_users_registered_total", "kind", snap.UsersRegistered)
	writeLabeled(w, "solidario_bonuses_credited_total", "category", snap.BonusesCredited)
	writeLabeled(w, "solidario_payment_claims_total", "outcome", snap.PaymentClaims)
	writeLabeled(w, "solidario_subscription_events_total", "event", snap.SubscriptionEvents)
	writeLabeled(w, "solidario_mailing_deliveries_total", "status", snap.MailingDeliveries)
	_, _ = fmt.Fprintf(w, "solidario_mailing_queue_depth %d\n", snap.MailingQueueDepth)
}

// writeLabeled emits one sample per label value in deterministic order.
func writeLabeled(w http.ResponseWriter, name, label string, values map[string]int64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}
