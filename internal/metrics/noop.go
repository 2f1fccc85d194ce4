package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncGenerationRequested is a no-op.
func (n *NoopRecorder) IncGenerationRequested() {}

// IncGenerationCompleted is a no-op.
func (n *NoopRecorder) IncGenerationCompleted(status string) {}

// ObserveGenerationDuration is a no-op.
func (n *NoopRecorder) ObserveGenerationDuration(duration time.Duration) {}

// ObserveUploadDuration is a no-op.
func (n *NoopRecorder) ObserveUploadDuration(duration time.Duration) {}

// IncPersistenceFallback is a no-op.
func (n *NoopRecorder) IncPersistenceFallback() {}

// IncCreditReserved is a no-op.
func (n *NoopRecorder) IncCreditReserved() {}

// IncCreditRefunded is a no-op.
func (n *NoopRecorder) IncCreditRefunded() {}

// IncInsufficientCredits is a no-op.
func (n *NoopRecorder) IncInsufficientCredits() {}

// IncBalanceCacheHit is a no-op.
func (n *NoopRecorder) IncBalanceCacheHit() {}

// IncBalanceCacheMiss is a no-op.
func (n *NoopRecorder) IncBalanceCacheMiss() {}

// IncEventPublished is a no-op.
func (n *NoopRecorder) IncEventPublished(status string) {}

// IncEventProcessed is a no-op.
func (n *NoopRecorder) IncEventProcessed(status string) {}

// ObserveEventBatchSize is a no-op.
func (n *NoopRecorder) ObserveEventBatchSize(size int) {}

// ObserveEventBatchDuration is a no-op.
func (n *NoopRecorder) ObserveEventBatchDuration(duration time.Duration) {}

// SetEventQueueDepth is a no-op.
func (n *NoopRecorder) SetEventQueueDepth(depth int64) {}
