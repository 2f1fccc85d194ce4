package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pixelsmith/pixelsmith/internal/auth"
	"github.com/pixelsmith/pixelsmith/internal/identity"
	"github.com/pixelsmith/pixelsmith/internal/model"
	"github.com/pixelsmith/pixelsmith/internal/repository"
	"github.com/pixelsmith/pixelsmith/internal/service"
)

type stubProvider struct {
	exchangeErr error
}

func (s *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (s *stubProvider) ExchangeCode(ctx context.Context, code string) (string, error) {
	if s.exchangeErr != nil {
		return "", s.exchangeErr
	}
	return "access-token", nil
}

func (s *stubProvider) FetchProfile(ctx context.Context, accessToken string) (*identity.Profile, error) {
	return &identity.Profile{ID: "user-1", Email: "artist@example.com"}, nil
}

type stubUserStore struct{}

func (s *stubUserStore) ProvisionUser(ctx context.Context, user *model.User, startingCredits int) (*model.User, error) {
	return user, nil
}

func (s *stubUserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

type stubSessionCache struct {
	sessions map[string]*model.Session
}

func (s *stubSessionCache) SetSession(ctx context.Context, lookupKey string, session *model.Session, ttl time.Duration) error {
	s.sessions[lookupKey] = session
	return nil
}

func (s *stubSessionCache) GetSession(ctx context.Context, lookupKey string) (*model.Session, error) {
	return s.sessions[lookupKey], nil
}

func (s *stubSessionCache) DeleteSession(ctx context.Context, lookupKey string) error {
	delete(s.sessions, lookupKey)
	return nil
}

func newTestAuthHandler(provider *stubProvider) (*AuthHandler, *stubSessionCache) {
	sessions := &stubSessionCache{sessions: make(map[string]*model.Session)}
	svc := service.NewAuthService(provider, &stubUserStore{}, sessions, time.Hour, 10, testLogger)
	return NewAuthHandler(svc, "https://app.example.com", time.Hour, true, testLogger), sessions
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthLogin(t *testing.T) {
	h, _ := newTestAuthHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}

	state := findCookie(rec, stateCookieName)
	if state == nil || state.Value == "" {
		t.Fatal("expected state cookie")
	}
	if !state.HttpOnly {
		t.Error("state cookie should be HttpOnly")
	}

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "state="+state.Value) {
		t.Errorf("redirect %q does not carry the state", location)
	}
}

func TestAuthCallback_Success(t *testing.T) {
	h, sessions := newTestAuthHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=auth-code&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "state-1"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "https://app.example.com" {
		t.Errorf("Location = %q", got)
	}

	session := findCookie(rec, auth.SessionCookieName)
	if session == nil || session.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !session.HttpOnly || !session.Secure {
		t.Error("session cookie should be HttpOnly and Secure")
	}

	if len(sessions.sessions) != 1 {
		t.Errorf("stored %d sessions, want 1", len(sessions.sessions))
	}
}

func TestAuthCallback_StateMismatch(t *testing.T) {
	h, _ := newTestAuthHandler(&stubProvider{})

	tests := []struct {
		name   string
		target string
		cookie string
	}{
		{"wrong state", "/auth/callback?code=c&state=other", "state-1"},
		{"missing state", "/auth/callback?code=c", "state-1"},
		{"missing cookie", "/auth/callback?code=c&state=state-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: stateCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			h.Callback(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthCallback_MissingCode(t *testing.T) {
	h, _ := newTestAuthHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=s", nil)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAuthCallback_ProviderDenied(t *testing.T) {
	h, _ := newTestAuthHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthCallback_ExchangeFailed(t *testing.T) {
	h, _ := newTestAuthHandler(&stubProvider{exchangeErr: errors.New("invalid_grant")})

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=s", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthLogout(t *testing.T) {
	h, sessions := newTestAuthHandler(&stubProvider{})

	// Log in first to create a session.
	loginReq := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=s", nil)
	loginReq.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s"})
	loginRec := httptest.NewRecorder()
	h.Callback(loginRec, loginReq)

	token := findCookie(loginRec, auth.SessionCookieName)
	if token == nil {
		t.Fatal("login did not set session cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token.Value})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
	if len(sessions.sessions) != 0 {
		t.Error("session should be removed on logout")
	}

	cleared := findCookie(rec, auth.SessionCookieName)
	if cleared == nil || cleared.MaxAge != -1 {
		t.Error("session cookie should be cleared")
	}
}

func TestAuthLogout_NoSession(t *testing.T) {
	h, _ := newTestAuthHandler(&stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rec.Code)
	}
}
