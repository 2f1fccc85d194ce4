package events

import "fmt"

// Event statuses written by the generation workflow.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// ValidateGenerationEventPayload validates event payload fields before
// persistence. Invalid payloads are dead-lettered by the worker.
func ValidateGenerationEventPayload(payload GenerationEventPayload) error {
	if payload.GenerationID == "" {
		return fmt.Errorf("generation_id is required")
	}
	if payload.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	switch payload.Status {
	case StatusCompleted, StatusFailed, StatusRejected:
	default:
		return fmt.Errorf("unknown status: %s", payload.Status)
	}
	if payload.CreditsRemaining < 0 {
		return fmt.Errorf("credits_remaining must not be negative")
	}
	if payload.CompletedAt <= 0 {
		return fmt.Errorf("completed_at must be set")
	}
	return nil
}
