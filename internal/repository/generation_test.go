package repository

import (
	"errors"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	original := &PaginationCursor{
		ID:        "gen-01HXYZ",
		CreatedAt: time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC),
	}

	encoded := encodeCursor(original)
	decoded, err := decodeCursor(encoded)
	if err != nil {
		t.Fatalf("decodeCursor failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("ID mismatch: got %q, want %q", decoded.ID, original.ID)
	}
	if !decoded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", decoded.CreatedAt, original.CreatedAt)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"not json", "bm90LWpzb24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeCursor(tt.cursor); err == nil {
				t.Error("expected error for invalid cursor")
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "users_pkey" (SQLSTATE 23505)`)) {
		t.Error("expected 23505 error to be detected")
	}
	if isUniqueViolation(errors.New("connection refused")) {
		t.Error("unrelated error should not match")
	}
	if isUniqueViolation(nil) {
		t.Error("nil error should not match")
	}
}
