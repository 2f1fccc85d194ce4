// Package model defines domain entities for the application.
package model

import (
	"encoding/base64"
	"time"
)

// Generation represents one completed image generation.
// Records are append-only: there is no update or delete path.
type Generation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Prompt      string    `json:"prompt"`
	ImageURL    string    `json:"image_url"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// GenerationResult is the outcome of a generation request returned to the caller.
// ImageURL is either the stored object's public URL or, when persistence
// failed, an inline data: URL carrying the raw image bytes.
type GenerationResult struct {
	Generation       *Generation
	ImageURL         string
	Persisted        bool
	CreditsRemaining int
}

// InlineImageURL encodes image bytes as a data: URL for inline display.
func InlineImageURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
