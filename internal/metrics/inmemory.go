package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	GenerationsRequested      uint64
	GenerationsSucceeded      uint64
	GenerationsFailed         uint64
	GenerationsRejected       uint64
	GenerationDurationCount   uint64
	GenerationDurationTotalNs int64
	UploadDurationCount       uint64
	UploadDurationTotalNs     int64
	PersistenceFallbacks      uint64
	CreditsReserved           uint64
	CreditsRefunded           uint64
	InsufficientCredits       uint64
	BalanceCacheHits          uint64
	BalanceCacheMisses        uint64
	EventsPublished           uint64
	EventsDropped             uint64
	EventsProcessed           uint64
	EventsProcessFailed       uint64
	EventsDeadLettered        uint64
	EventBatchCount           uint64
	EventBatchTotalSize       uint64
	EventBatchDurationTotalNs int64
	EventQueueDepth           int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	generationsRequested      uint64
	generationsSucceeded      uint64
	generationsFailed         uint64
	generationsRejected       uint64
	generationDurationCount   uint64
	generationDurationTotalNs int64
	uploadDurationCount       uint64
	uploadDurationTotalNs     int64
	persistenceFallbacks      uint64
	creditsReserved           uint64
	creditsRefunded           uint64
	insufficientCredits       uint64
	balanceCacheHits          uint64
	balanceCacheMisses        uint64
	eventsPublished           uint64
	eventsDropped             uint64
	eventsProcessed           uint64
	eventsProcessFailed       uint64
	eventsDeadLettered        uint64
	eventBatchCount           uint64
	eventBatchTotalSize       uint64
	eventBatchDurationTotalNs int64
	eventQueueDepth           int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		GenerationsRequested:      atomic.LoadUint64(&m.generationsRequested),
		GenerationsSucceeded:      atomic.LoadUint64(&m.generationsSucceeded),
		GenerationsFailed:         atomic.LoadUint64(&m.generationsFailed),
		GenerationsRejected:       atomic.LoadUint64(&m.generationsRejected),
		GenerationDurationCount:   atomic.LoadUint64(&m.generationDurationCount),
		GenerationDurationTotalNs: atomic.LoadInt64(&m.generationDurationTotalNs),
		UploadDurationCount:       atomic.LoadUint64(&m.uploadDurationCount),
		UploadDurationTotalNs:     atomic.LoadInt64(&m.uploadDurationTotalNs),
		PersistenceFallbacks:      atomic.LoadUint64(&m.persistenceFallbacks),
		CreditsReserved:           atomic.LoadUint64(&m.creditsReserved),
		CreditsRefunded:           atomic.LoadUint64(&m.creditsRefunded),
		InsufficientCredits:       atomic.LoadUint64(&m.insufficientCredits),
		BalanceCacheHits:          atomic.LoadUint64(&m.balanceCacheHits),
		BalanceCacheMisses:        atomic.LoadUint64(&m.balanceCacheMisses),
		EventsPublished:           atomic.LoadUint64(&m.eventsPublished),
		EventsDropped:             atomic.LoadUint64(&m.eventsDropped),
		EventsProcessed:           atomic.LoadUint64(&m.eventsProcessed),
		EventsProcessFailed:       atomic.LoadUint64(&m.eventsProcessFailed),
		EventsDeadLettered:        atomic.LoadUint64(&m.eventsDeadLettered),
		EventBatchCount:           atomic.LoadUint64(&m.eventBatchCount),
		EventBatchTotalSize:       atomic.LoadUint64(&m.eventBatchTotalSize),
		EventBatchDurationTotalNs: atomic.LoadInt64(&m.eventBatchDurationTotalNs),
		EventQueueDepth:           atomic.LoadInt64(&m.eventQueueDepth),
	}
}

// IncGenerationRequested increments the generation request counter.
func (m *InMemoryRecorder) IncGenerationRequested() {
	atomic.AddUint64(&m.generationsRequested, 1)
}

// IncGenerationCompleted increments the completion counter for a status.
func (m *InMemoryRecorder) IncGenerationCompleted(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.generationsSucceeded, 1)
	case "rejected":
		atomic.AddUint64(&m.generationsRejected, 1)
	default:
		atomic.AddUint64(&m.generationsFailed, 1)
	}
}

// ObserveGenerationDuration records upstream generation latency.
func (m *InMemoryRecorder) ObserveGenerationDuration(duration time.Duration) {
	atomic.AddUint64(&m.generationDurationCount, 1)
	atomic.AddInt64(&m.generationDurationTotalNs, duration.Nanoseconds())
}

// ObserveUploadDuration records storage upload latency.
func (m *InMemoryRecorder) ObserveUploadDuration(duration time.Duration) {
	atomic.AddUint64(&m.uploadDurationCount, 1)
	atomic.AddInt64(&m.uploadDurationTotalNs, duration.Nanoseconds())
}

// IncPersistenceFallback increments the inline-delivery fallback counter.
func (m *InMemoryRecorder) IncPersistenceFallback() {
	atomic.AddUint64(&m.persistenceFallbacks, 1)
}

// IncCreditReserved increments the credit reservation counter.
func (m *InMemoryRecorder) IncCreditReserved() {
	atomic.AddUint64(&m.creditsReserved, 1)
}

// IncCreditRefunded increments the credit refund counter.
func (m *InMemoryRecorder) IncCreditRefunded() {
	atomic.AddUint64(&m.creditsRefunded, 1)
}

// IncInsufficientCredits increments the rejected-for-balance counter.
func (m *InMemoryRecorder) IncInsufficientCredits() {
	atomic.AddUint64(&m.insufficientCredits, 1)
}

// IncBalanceCacheHit increments the balance cache hit counter.
func (m *InMemoryRecorder) IncBalanceCacheHit() {
	atomic.AddUint64(&m.balanceCacheHits, 1)
}

// IncBalanceCacheMiss increments the balance cache miss counter.
func (m *InMemoryRecorder) IncBalanceCacheMiss() {
	atomic.AddUint64(&m.balanceCacheMisses, 1)
}

// IncEventPublished increments the event publish counter for a status.
func (m *InMemoryRecorder) IncEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.eventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.eventsDropped, 1)
}

// IncEventProcessed increments the consumer-side counter for a status.
func (m *InMemoryRecorder) IncEventProcessed(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.eventsProcessed, 1)
	case "dead_lettered":
		atomic.AddUint64(&m.eventsDeadLettered, 1)
	default:
		atomic.AddUint64(&m.eventsProcessFailed, 1)
	}
}

// ObserveEventBatchSize records the size of a processed batch.
func (m *InMemoryRecorder) ObserveEventBatchSize(size int) {
	atomic.AddUint64(&m.eventBatchCount, 1)
	atomic.AddUint64(&m.eventBatchTotalSize, uint64(size))
}

// ObserveEventBatchDuration records how long a batch took to process.
func (m *InMemoryRecorder) ObserveEventBatchDuration(duration time.Duration) {
	atomic.AddInt64(&m.eventBatchDurationTotalNs, duration.Nanoseconds())
}

// SetEventQueueDepth records the current stream backlog.
func (m *InMemoryRecorder) SetEventQueueDepth(depth int64) {
	atomic.StoreInt64(&m.eventQueueDepth, depth)
}
