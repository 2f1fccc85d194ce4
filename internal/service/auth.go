package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixelsmith/pixelsmith/internal/auth"
	"github.com/pixelsmith/pixelsmith/internal/identity"
	"github.com/pixelsmith/pixelsmith/internal/model"
)

// Auth service errors.
var (
	ErrAuthCodeExchange = errors.New("authorization code exchange failed")
	ErrProfileFetch     = errors.New("failed to fetch user profile")
	ErrSessionNotFound  = errors.New("session not found")
)

// IdentityProvider abstracts the external OAuth provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*identity.Profile, error)
}

// UserStore provisions and retrieves user accounts.
type UserStore interface {
	ProvisionUser(ctx context.Context, user *model.User, startingCredits int) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// SessionCache stores login sessions.
type SessionCache interface {
	SetSession(ctx context.Context, lookupKey string, session *model.Session, ttl time.Duration) error
	GetSession(ctx context.Context, lookupKey string) (*model.Session, error)
	DeleteSession(ctx context.Context, lookupKey string) error
}

// AuthService handles the login flow and session lifecycle.
type AuthService struct {
	provider        IdentityProvider
	users           UserStore
	sessions        SessionCache
	sessionTTL      time.Duration
	startingCredits int
	logger          *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	provider IdentityProvider,
	users UserStore,
	sessions SessionCache,
	sessionTTL time.Duration,
	startingCredits int,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		provider:        provider,
		users:           users,
		sessions:        sessions,
		sessionTTL:      sessionTTL,
		startingCredits: startingCredits,
		logger:          logger.With("component", "service.auth"),
	}
}

// LoginURL returns the provider authorization URL for a login redirect.
func (s *AuthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleCallback completes the login flow: exchanges the authorization
// code, provisions the account on first login, and issues a session token.
func (s *AuthService) HandleCallback(ctx context.Context, code string) (string, *model.Session, error) {
	accessToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrAuthCodeExchange, err)
	}

	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}

	user, err := s.users.ProvisionUser(ctx, &model.User{
		ID:        profile.ID,
		Email:     profile.Email,
		CreatedAt: time.Now().UTC(),
	}, s.startingCredits)
	if err != nil {
		return "", nil, fmt.Errorf("failed to provision user: %w", err)
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &model.Session{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.sessions.SetSession(ctx, auth.SessionLookupKey(token), session, s.sessionTTL); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return token, session, nil
}

// SessionFromToken resolves a session token to its session.
func (s *AuthService) SessionFromToken(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetSession(ctx, auth.SessionLookupKey(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// Logout destroys the session for a token. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, auth.SessionLookupKey(token))
}

// GetUser returns the account for a user ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}
