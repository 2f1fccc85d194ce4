package handler

import (
	"fmt"
	"net/http"

	"github.com/pixelsmith/pixelsmith/internal/metrics"
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
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "pixelsmith_generations_requested_total %d\n", snap.GenerationsRequested)
	writeMetric(w, "pixelsmith_generations_completed_total{status=\"success\"} %d\n", snap.GenerationsSucceeded)
	writeMetric(w, "pixelsmith_generations_completed_total{status=\"failed\"} %d\n", snap.GenerationsFailed)
	writeMetric(w, "pixelsmith_generations_completed_total{status=\"rejected\"} %d\n", snap.GenerationsRejected)
	writeMetric(w, "pixelsmith_generation_duration_seconds_count %d\n", snap.GenerationDurationCount)
	writeMetric(w, "pixelsmith_generation_duration_seconds_sum %.6f\n", float64(snap.GenerationDurationTotalNs)/1e9)
	writeMetric(w, "pixelsmith_upload_duration_seconds_count %d\n", snap.UploadDurationCount)
	writeMetric(w, "pixelsmith_upload_duration_seconds_sum %.6f\n", float64(snap.UploadDurationTotalNs)/1e9)
	writeMetric(w, "pixelsmith_persistence_fallbacks_total %d\n", snap.PersistenceFallbacks)

	writeMetric(w, "pixelsmith_credits_reserved_total %d\n", snap.CreditsReserved)
	writeMetric(w, "pixelsmith_credits_refunded_total %d\n", snap.CreditsRefunded)
	writeMetric(w, "pixelsmith_insufficient_credits_total %d\n", snap.InsufficientCredits)

	writeMetric(w, "pixelsmith_balance_cache_hits_total %d\n", snap.BalanceCacheHits)
	writeMetric(w, "pixelsmith_balance_cache_misses_total %d\n", snap.BalanceCacheMisses)

	writeMetric(w, "pixelsmith_events_published_total{status=\"success\"} %d\n", snap.EventsPublished)
	writeMetric(w, "pixelsmith_events_published_total{status=\"dropped\"} %d\n", snap.EventsDropped)
	writeMetric(w, "pixelsmith_events_processed_total{status=\"success\"} %d\n", snap.EventsProcessed)
	writeMetric(w, "pixelsmith_events_processed_total{status=\"failed\"} %d\n", snap.EventsProcessFailed)
	writeMetric(w, "pixelsmith_events_processed_total{status=\"dead_lettered\"} %d\n", snap.EventsDeadLettered)
	writeMetric(w, "pixelsmith_event_batches_total %d\n", snap.EventBatchCount)
	writeMetric(w, "pixelsmith_event_batch_size_sum %d\n", snap.EventBatchTotalSize)
	writeMetric(w, "pixelsmith_event_batch_duration_seconds_sum %.6f\n", float64(snap.EventBatchDurationTotalNs)/1e9)
	writeMetric(w, "pixelsmith_event_queue_depth %d\n", snap.EventQueueDepth)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
