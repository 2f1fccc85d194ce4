package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pixelsmith/pixelsmith/internal/auth"
	"github.com/pixelsmith/pixelsmith/internal/cache"
	"github.com/pixelsmith/pixelsmith/internal/model"
	"github.com/pixelsmith/pixelsmith/internal/repository"
)

// minAuthDuration pads API key verification so that failures take
// roughly constant time regardless of where verification bailed out.
const minAuthDuration = 200 * time.Millisecond

// sessionScopes are the scopes granted to browser sessions. A logged-in
// user can read and write their own resources but never reaches admin
// endpoints; those require an API key carrying the admin scope.
var sessionScopes = []string{model.ScopeRead, model.ScopeWrite}

// AuthConfig holds dependencies for the auth middleware.
type AuthConfig struct {
	Logger     *slog.Logger
	Repository *repository.Repository
	Cache      *cache.Cache
}

// Auth returns middleware that authenticates requests either by browser
// session cookie or by API key (Authorization: Bearer or X-API-Key).
// The resulting AuthContext is injected into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
				authCtx, ok := authenticateSession(r.Context(), cfg, cookie.Value)
				if ok {
					next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
					return
				}
				// An expired or revoked session cookie falls through to
				// API key auth so mixed clients keep working.
			}

			if key := extractAPIKey(r); key != "" {
				authCtx, ok := authenticateAPIKey(r, cfg, key)
				if ok {
					next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
					return
				}
				writeAuthError(w, "Invalid or missing API key")
				return
			}

			writeAuthError(w, "Authentication required")
		})
	}
}

// authenticateSession resolves a session token against the session store.
func authenticateSession(ctx context.Context, cfg AuthConfig, token string) (*model.AuthContext, bool) {
	session, err := cfg.Cache.GetSession(ctx, auth.SessionLookupKey(token))
	if err != nil {
		cfg.Logger.Error("session lookup failed",
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if session == nil {
		return nil, false
	}

	return &model.AuthContext{
		Method:        model.AuthMethodSession,
		UserID:        session.UserID,
		Email:         session.Email,
		Scopes:        sessionScopes,
		RateLimitTier: model.TierFree,
	}, true
}

// authenticateAPIKey verifies an API key, consulting the auth cache
// before falling back to a database prefix lookup and argon2 verify.
func authenticateAPIKey(r *http.Request, cfg AuthConfig, key string) (*model.AuthContext, bool) {
	start := time.Now()
	defer func() {
		if elapsed := time.Since(start); elapsed < minAuthDuration {
			time.Sleep(minAuthDuration - elapsed)
		}
	}()

	parsed, err := auth.ParseAPIKey(key)
	if err != nil {
		cfg.Logger.Warn("auth failed: malformed key",
			slog.String("ip", r.RemoteAddr),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return nil, false
	}

	cacheKey := auth.QuickHash(key)

	if cached, err := cfg.Cache.GetAuthContext(r.Context(), cacheKey); err == nil && cached != nil {
		cfg.Logger.Info("authenticated",
			slog.String("key_id", cached.KeyID),
			slog.Bool("cache_hit", true),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return cached, true
	}

	candidates, err := cfg.Repository.GetAPIKeysByPrefix(r.Context(), parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("auth failed: key lookup error",
			slog.String("error", err.Error()),
			slog.String("prefix", parsed.Prefix),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return nil, false
	}

	for _, candidate := range candidates {
		match, err := auth.VerifyPassword(key, candidate.KeyHash)
		if err != nil || !match {
			continue
		}

		authCtx := &model.AuthContext{
			Method:        model.AuthMethodAPIKey,
			UserID:        candidate.UserID,
			KeyID:         candidate.ID,
			KeyPrefix:     candidate.KeyPrefix,
			Scopes:        candidate.Scopes,
			RateLimitTier: candidate.RateLimitTier,
		}

		if err := cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx); err != nil {
			cfg.Logger.Warn("failed to cache auth context",
				slog.String("error", err.Error()),
				slog.String("key_id", candidate.ID),
			)
		}

		// Fire and forget. Last-used tracking is advisory.
		go func(keyID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := cfg.Repository.UpdateAPIKeyLastUsed(ctx, keyID); err != nil {
				cfg.Logger.Warn("failed to update key last_used_at",
					slog.String("error", err.Error()),
					slog.String("key_id", keyID),
				)
			}
		}(candidate.ID)

		cfg.Logger.Info("authenticated",
			slog.String("key_id", candidate.ID),
			slog.Bool("cache_hit", false),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return authCtx, true
	}

	cfg.Logger.Warn("auth failed: no matching key",
		slog.String("prefix", parsed.Prefix),
		slog.String("ip", r.RemoteAddr),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	return nil, false
}

// extractAPIKey pulls the API key from the Authorization header
// (Bearer scheme) or the X-API-Key header.
func extractAPIKey(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a uniform 401 response.
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}
