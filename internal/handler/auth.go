package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pixelsmith/pixelsmith/internal/auth"
	"github.com/pixelsmith/pixelsmith/internal/service"
)

const (
	// stateCookieName carries the OAuth state between redirect and callback.
	stateCookieName = "pixelsmith_oauth_state"
	// stateTTL bounds how long a login attempt stays valid.
	stateTTL = 10 * time.Minute
)

// AuthHandler handles the browser login flow.
type AuthHandler struct {
	service       *service.AuthService
	baseURL       string
	sessionTTL    time.Duration
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, baseURL string, sessionTTL time.Duration, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:       svc,
		baseURL:       baseURL,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// Login handles GET /auth/login
// Redirects the browser to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.GenerateSessionToken()
	if err != nil {
		h.logger.Error("failed to generate login state", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.LoginURL(state), http.StatusFound)
}

// Callback handles GET /auth/callback
// Completes the login and redirects back to the app with a session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn("provider returned login error", slog.String("error", errParam))
		writeError(w, http.StatusUnauthorized, "LOGIN_FAILED", "Login was denied by the identity provider")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Missing authorization code")
		return
	}

	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || state == "" || stateCookie.Value != state {
		writeError(w, http.StatusUnauthorized, "INVALID_STATE", "Login state mismatch")
		return
	}

	token, session, err := h.service.HandleCallback(ctx, code)
	if err != nil {
		h.writeCallbackError(w, err)
		return
	}

	// State is single use.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login completed", slog.String("user_id", session.UserID))

	http.Redirect(w, r, h.baseURL, http.StatusFound)
}

func (h *AuthHandler) writeCallbackError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAuthCodeExchange):
		writeError(w, http.StatusUnauthorized, "LOGIN_FAILED", "Authorization code was rejected")
	case errors.Is(err, service.ErrProfileFetch):
		writeError(w, http.StatusBadGateway, "PROFILE_FETCH_FAILED", "Could not fetch user profile")
	default:
		h.logger.Error("login callback failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
	}
}

// Logout handles POST /auth/logout
// Destroys the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := h.service.Logout(ctx, cookie.Value); err != nil {
			h.logger.Warn("session cleanup failed", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
