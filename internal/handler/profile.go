package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pixelsmith/pixelsmith/internal/auth"
	"github.com/pixelsmith/pixelsmith/internal/handler/dto"
	"github.com/pixelsmith/pixelsmith/internal/repository"
	"github.com/pixelsmith/pixelsmith/internal/service"
)

// ProfileHandler handles the authenticated account endpoint.
type ProfileHandler struct {
	authService *service.AuthService
	genService  *service.GenerationService
	logger      *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(authSvc *service.AuthService, genSvc *service.GenerationService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		authService: authSvc,
		genService:  genSvc,
		logger:      logger,
	}
}

// Me handles GET /api/v1/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.authService.GetUser(ctx, authCtx.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer exists")
			return
		}
		h.logger.Error("failed to load user",
			slog.String("user_id", authCtx.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load account")
		return
	}

	balance, err := h.genService.GetBalance(ctx, authCtx.UserID)
	if err != nil {
		h.logger.Error("failed to load balance",
			slog.String("user_id", authCtx.UserID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load credit balance")
		return
	}

	writeJSON(w, http.StatusOK, dto.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Credits:   balance.Credits,
		CreatedAt: user.CreatedAt,
	})
}
