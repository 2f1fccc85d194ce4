// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/pixelsmith/pixelsmith/internal/model"
)

// GenerateRequest represents the request body for generating an image.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse represents the result of a generation request.
type GenerateResponse struct {
	ID               string    `json:"id"`
	Prompt           string    `json:"prompt"`
	ImageURL         string    `json:"image_url"`
	ContentType      string    `json:"content_type"`
	Persisted        bool      `json:"persisted"`
	CreditsRemaining int       `json:"credits_remaining"`
	CreatedAt        time.Time `json:"created_at"`
}

// GenerationResponse represents a stored generation in API responses.
type GenerationResponse struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	ImageURL    string    `json:"image_url"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// GenerationListResponse represents a paginated list of generations.
type GenerationListResponse struct {
	Data       []GenerationResponse `json:"data"`
	Pagination *Pagination          `json:"pagination"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// ProfileResponse represents the authenticated user's account.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToGenerateResponse converts a GenerationResult to the API shape.
func ToGenerateResponse(result *model.GenerationResult) *GenerateResponse {
	return &GenerateResponse{
		ID:               result.Generation.ID,
		Prompt:           result.Generation.Prompt,
		ImageURL:         result.ImageURL,
		ContentType:      result.Generation.ContentType,
		Persisted:        result.Persisted,
		CreditsRemaining: result.CreditsRemaining,
		CreatedAt:        result.Generation.CreatedAt,
	}
}

// ToGenerationResponse converts a Generation model to its API shape.
func ToGenerationResponse(gen *model.Generation) *GenerationResponse {
	return &GenerationResponse{
		ID:          gen.ID,
		Prompt:      gen.Prompt,
		ImageURL:    gen.ImageURL,
		ContentType: gen.ContentType,
		CreatedAt:   gen.CreatedAt,
	}
}

// ToGenerationListResponse converts generations to a paginated response.
func ToGenerationListResponse(gens []*model.Generation, nextCursor string, hasMore bool) *GenerationListResponse {
	responses := make([]GenerationResponse, len(gens))
	for i, gen := range gens {
		responses[i] = *ToGenerationResponse(gen)
	}
	return &GenerationListResponse{
		Data: responses,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}
