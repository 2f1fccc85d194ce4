// Package events publishes generation lifecycle events to a Redis stream
// for downstream consumers (billing, moderation, analytics).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pixelsmith/pixelsmith/internal/metrics"
)

const (
	// StreamKey is the Redis stream for generation events.
	StreamKey = "stream:generation_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 100 * time.Millisecond
)

// GenerationEventPayload is the compressed event format for the Redis stream.
type GenerationEventPayload struct {
	GenerationID     string `json:"gid"`
	UserID           string `json:"uid"`
	Status           string `json:"s"` // "completed", "failed", "rejected"
	Persisted        bool   `json:"p"`
	CreditsRemaining int    `json:"cr"`
	CompletedAt      int64  `json:"t"` // Unix milliseconds
}

// Publisher enqueues generation events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new generation event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
	}
}

// Publish adds a generation event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event GenerationEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",  // Auto-generate ID
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()

	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (p *Publisher) PublishAsync(event GenerationEventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish generation event",
				"generation_id", event.GenerationID,
				"error", err,
			)
			p.metrics.IncEventPublished("dropped")
			return
		}

		p.logger.Debug("generation event published",
			"generation_id", event.GenerationID,
			"stream_id", streamID,
		)
		p.metrics.IncEventPublished("success")
	}()
}
