package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pixelsmith/pixelsmith/internal/auth"
	"github.com/pixelsmith/pixelsmith/internal/handler/dto"
	"github.com/pixelsmith/pixelsmith/internal/service"
)

// GenerationHandler handles image generation endpoints.
type GenerationHandler struct {
	service *service.GenerationService
	logger  *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(svc *service.GenerationService, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: svc,
		logger:  logger,
	}
}

// Create handles POST /api/v1/generations
func (h *GenerationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req dto.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.service.Generate(ctx, authCtx.UserID, req.Prompt)
	if err != nil {
		h.writeGenerateError(w, authCtx.UserID, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToGenerateResponse(result))
}

// writeGenerateError maps service errors to API responses.
func (h *GenerationHandler) writeGenerateError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, service.ErrPromptRequired):
		writeError(w, http.StatusBadRequest, "PROMPT_REQUIRED", "Prompt is required")
	case errors.Is(err, service.ErrPromptTooLong):
		writeError(w, http.StatusBadRequest, "PROMPT_TOO_LONG", "Prompt exceeds maximum length")
	case errors.Is(err, service.ErrInsufficientCredits):
		writeError(w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS", "Not enough credits to generate an image")
	case errors.Is(err, service.ErrContentPolicy):
		writeError(w, http.StatusUnprocessableEntity, "CONTENT_POLICY", "Prompt was rejected by the content policy")
	case errors.Is(err, service.ErrBalanceLookup):
		h.logger.Error("credit balance lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "PROFILE_FETCH_FAILED", "Profile fetch error")
	default:
		h.logger.Error("generation request failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "GENERATION_FAILED", "Image generation failed")
	}
}

// List handles GET /api/v1/generations
func (h *GenerationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "Limit must be an integer")
			return
		}
		limit = parsed
	}

	output, err := h.service.ListGenerations(ctx, authCtx.UserID, cursor, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCursor) {
			writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
			return
		}
		h.logger.Error("failed to list generations",
			slog.String("user_id", authCtx.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list generations")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToGenerationListResponse(output.Generations, output.NextCursor, output.HasMore))
}

// Get handles GET /api/v1/generations/{id}
func (h *GenerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Generation ID is required")
		return
	}

	gen, err := h.service.GetGeneration(ctx, authCtx.UserID, id)
	if err != nil {
		if errors.Is(err, service.ErrGenerationNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Generation not found")
			return
		}
		h.logger.Error("failed to get generation",
			slog.String("user_id", authCtx.UserID),
			slog.String("generation_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get generation")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToGenerationResponse(gen))
}
