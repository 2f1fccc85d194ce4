package events

import (
	"encoding/json"
	"testing"
)

func TestGenerationEventPayload_CompactFields(t *testing.T) {
	t.Parallel()

	payload := GenerationEventPayload{
		GenerationID:     "gen-1",
		UserID:           "user-1",
		Status:           "completed",
		Persisted:        true,
		CreditsRemaining: 9,
		CompletedAt:      1700000000000,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	// Stream payloads use short keys to keep entries small.
	for _, key := range []string{"gid", "uid", "s", "p", "cr", "t"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing key %q", key)
		}
	}

	var decoded GenerationEventPayload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round-trip Unmarshal failed: %v", err)
	}
	if decoded != payload {
		t.Errorf("round-trip mismatch: got %+v", decoded)
	}
}
