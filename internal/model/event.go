package model

import "time"

// GenerationEvent is a generation lifecycle event consumed from the
// event stream and persisted for auditing. EventID is the Redis stream
// message ID and doubles as the idempotency key.
type GenerationEvent struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	GenerationID     string    `json:"generation_id"`
	UserID           string    `json:"user_id"`
	Status           string    `json:"status"`
	Persisted        bool      `json:"persisted"`
	CreditsRemaining int       `json:"credits_remaining"`
	CompletedAt      time.Time `json:"completed_at"`
}

// DailyUsage is a per-user, per-day rollup of generation activity.
type DailyUsage struct {
	UserID      string    `json:"user_id"`
	Day         time.Time `json:"day"`
	Generations int64     `json:"generations"`
	Succeeded   int64     `json:"succeeded"`
	Failed      int64     `json:"failed"`
	Rejected    int64     `json:"rejected"`
}
