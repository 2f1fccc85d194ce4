package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pixelsmith/pixelsmith/internal/model"
	"github.com/pixelsmith/pixelsmith/internal/repository"
)

type stubAdminRepo struct {
	credits map[string]int
	usage   []*model.DailyUsage
}

func (s *stubAdminRepo) ListGenerations(ctx context.Context, userID, cursor string, limit int) ([]*model.Generation, string, error) {
	return nil, "", nil
}

func (s *stubAdminRepo) CountGenerations(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (s *stubAdminRepo) ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error) {
	return nil, nil
}

func (s *stubAdminRepo) GetDailyUsage(ctx context.Context, userID string, from, to time.Time) ([]*model.DailyUsage, error) {
	return s.usage, nil
}

func (s *stubAdminRepo) GrantCredits(ctx context.Context, userID string, amount int) (int, error) {
	balance, ok := s.credits[userID]
	if !ok {
		return 0, repository.ErrBalanceNotFound
	}
	balance += amount
	s.credits[userID] = balance
	return balance, nil
}

func newTestAdminHandler(repo *stubAdminRepo) *AdminHandler {
	return NewAdminHandler(repo, repo, repo, repo, testLogger)
}

func grantRequest(userID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/"+userID+"/credits", strings.NewReader(body))
	req.SetPathValue("user_id", userID)
	return req
}

func TestAdminGrantCredits(t *testing.T) {
	repo := &stubAdminRepo{credits: map[string]int{"user-1": 3}}
	h := newTestAdminHandler(repo)

	rec := httptest.NewRecorder()
	h.GrantCredits(rec, grantRequest("user-1", `{"amount":25}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		UserID  string `json:"user_id"`
		Credits int    `json:"credits"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Credits != 28 {
		t.Errorf("credits = %d, want 28", resp.Credits)
	}
	if repo.credits["user-1"] != 28 {
		t.Errorf("stored balance = %d, want 28", repo.credits["user-1"])
	}
}

func TestAdminGrantCredits_InvalidAmount(t *testing.T) {
	h := newTestAdminHandler(&stubAdminRepo{credits: map[string]int{"user-1": 3}})

	tests := []struct {
		name string
		body string
	}{
		{"zero", `{"amount":0}`},
		{"negative", `{"amount":-5}`},
		{"missing", `{}`},
		{"not json", "{nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.GrantCredits(rec, grantRequest("user-1", tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestAdminGrantCredits_UnknownUser(t *testing.T) {
	h := newTestAdminHandler(&stubAdminRepo{credits: map[string]int{}})

	rec := httptest.NewRecorder()
	h.GrantCredits(rec, grantRequest("ghost", `{"amount":10}`))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "USER_NOT_FOUND") {
		t.Errorf("body = %s, want USER_NOT_FOUND error code", rec.Body.String())
	}
}

func TestAdminUserUsage(t *testing.T) {
	repo := &stubAdminRepo{usage: []*model.DailyUsage{
		{UserID: "user-1", Day: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), Generations: 4, Succeeded: 3, Failed: 1},
	}}
	h := newTestAdminHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/user-1/usage?days=7", nil)
	req.SetPathValue("user_id", "user-1")
	rec := httptest.NewRecorder()

	h.UserUsage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"user_id":"user-1"`) {
		t.Errorf("body = %s, want user_id echo", rec.Body.String())
	}
}

func TestAdminUserUsage_InvalidDays(t *testing.T) {
	h := newTestAdminHandler(&stubAdminRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users/user-1/usage?days=900", nil)
	req.SetPathValue("user_id", "user-1")
	rec := httptest.NewRecorder()

	h.UserUsage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}
