// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Generation workflow metrics
	IncGenerationRequested()
	IncGenerationCompleted(status string) // status: "success", "failed", "rejected"
	ObserveGenerationDuration(duration time.Duration)
	ObserveUploadDuration(duration time.Duration)
	IncPersistenceFallback()

	// Credit ledger metrics
	IncCreditReserved()
	IncCreditRefunded()
	IncInsufficientCredits()

	// Balance cache metrics
	IncBalanceCacheHit()
	IncBalanceCacheMiss()

	// Event pipeline metrics
	IncEventPublished(status string) // status: "success" or "dropped"
	IncEventProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveEventBatchSize(size int)
	ObserveEventBatchDuration(duration time.Duration)
	SetEventQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
