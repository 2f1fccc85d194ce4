package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pixelsmith/pixelsmith/internal/handler/dto"
	"github.com/pixelsmith/pixelsmith/internal/model"
	"github.com/pixelsmith/pixelsmith/internal/repository"
)

// AdminGenerationSearcher defines the interface for generation lookups.
type AdminGenerationSearcher interface {
	ListGenerations(ctx context.Context, userID, cursor string, limit int) ([]*model.Generation, string, error)
	CountGenerations(ctx context.Context, userID string) (int64, error)
}

// AdminKeyLister defines the interface for listing API keys.
type AdminKeyLister interface {
	ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error)
}

// AdminUsageReader defines the interface for usage rollup lookups.
type AdminUsageReader interface {
	GetDailyUsage(ctx context.Context, userID string, from, to time.Time) ([]*model.DailyUsage, error)
}

// AdminCreditGranter defines the interface for credit top-ups.
type AdminCreditGranter interface {
	GrantCredits(ctx context.Context, userID string, amount int) (int, error)
}

// AdminHandler provides admin-only endpoints for debugging and operations.
type AdminHandler struct {
	genRepo    AdminGenerationSearcher
	keyRepo    AdminKeyLister
	usageRepo  AdminUsageReader
	creditRepo AdminCreditGranter
	logger     *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(genRepo AdminGenerationSearcher, keyRepo AdminKeyLister, usageRepo AdminUsageReader, creditRepo AdminCreditGranter, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		genRepo:    genRepo,
		keyRepo:    keyRepo,
		usageRepo:  usageRepo,
		creditRepo: creditRepo,
		logger:     logger,
	}
}

// UserGenerationsResponse represents a user's generations in admin context.
type UserGenerationsResponse struct {
	Generations []dto.GenerationResponse `json:"generations"`
	Total       int64                    `json:"total"`
	NextCursor  string                   `json:"next_cursor,omitempty"`
}

// UserGenerations handles GET /api/v1/admin/users/{user_id}/generations
func (h *AdminHandler) UserGenerations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "User ID is required")
		return
	}

	gens, nextCursor, err := h.genRepo.ListGenerations(ctx, userID, r.URL.Query().Get("cursor"), 50)
	if err != nil {
		h.logger.Error("admin generation lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list generations")
		return
	}

	total, err := h.genRepo.CountGenerations(ctx, userID)
	if err != nil {
		h.logger.Error("admin generation count failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count generations")
		return
	}

	responses := make([]dto.GenerationResponse, 0, len(gens))
	for _, gen := range gens {
		responses = append(responses, *dto.ToGenerationResponse(gen))
	}

	writeJSON(w, http.StatusOK, UserGenerationsResponse{
		Generations: responses,
		Total:       total,
		NextCursor:  nextCursor,
	})
}

// UserAPIKeys handles GET /api/v1/admin/users/{user_id}/api-keys
func (h *AdminHandler) UserAPIKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "User ID is required")
		return
	}

	keys, err := h.keyRepo.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		h.logger.Error("admin key lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}

	writeJSON(w, http.StatusOK, map[string]any{"keys": responses})
}

// defaultUsageDays is the default lookback window for usage reports.
const defaultUsageDays = 30

// UserUsage handles GET /api/v1/admin/users/{user_id}/usage
// Returns daily generation rollups for the last N days.
func (h *AdminHandler) UserUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "User ID is required")
		return
	}

	days := defaultUsageDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			writeError(w, http.StatusBadRequest, "INVALID_DAYS", "days must be an integer between 1 and 365")
			return
		}
		days = parsed
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -(days - 1))

	usages, err := h.usageRepo.GetDailyUsage(ctx, userID, from, to)
	if err != nil {
		h.logger.Error("admin usage lookup failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read usage")
		return
	}

	if usages == nil {
		usages = []*model.DailyUsage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"usage":   usages,
	})
}

// GrantCreditsRequest is the body for an admin credit top-up.
type GrantCreditsRequest struct {
	Amount int `json:"amount"`
}

// GrantCredits handles POST /api/v1/admin/users/{user_id}/credits
func (h *AdminHandler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "User ID is required")
		return
	}

	var req GrantCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.Amount < 1 {
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "amount must be a positive integer")
		return
	}

	credits, err := h.creditRepo.GrantCredits(ctx, userID, req.Amount)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "No balance exists for that user")
			return
		}
		h.logger.Error("admin credit grant failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to grant credits")
		return
	}

	h.logger.Info("credits granted",
		slog.String("user_id", userID),
		slog.Int("amount", req.Amount),
		slog.Int("credits", credits),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"credits": credits,
	})
}
