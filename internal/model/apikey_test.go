package model

import (
	"testing"
	"time"
)

func TestAPIKey_HasScope(t *testing.T) {
	tests := []struct {
		name   string
		scopes []string
		check  string
		want   bool
	}{
		{"has read", []string{ScopeRead}, ScopeRead, true},
		{"missing write", []string{ScopeRead}, ScopeWrite, false},
		{"admin implies write", []string{ScopeAdmin}, ScopeWrite, true},
		{"admin implies read", []string{ScopeAdmin}, ScopeRead, true},
		{"empty scopes", nil, ScopeRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &APIKey{Scopes: tt.scopes}
			if got := k.HasScope(tt.check); got != tt.want {
				t.Errorf("HasScope(%q) = %v, want %v", tt.check, got, tt.want)
			}
		})
	}
}

func TestAPIKey_IsRevoked(t *testing.T) {
	k := &APIKey{}
	if k.IsRevoked() {
		t.Error("expected key without revoked_at to be active")
	}

	now := time.Now()
	k.RevokedAt = &now
	if !k.IsRevoked() {
		t.Error("expected key with revoked_at to be revoked")
	}
}

func TestAPIKey_GetRateLimitConfig(t *testing.T) {
	k := &APIKey{RateLimitTier: TierPro}
	cfg := k.GetRateLimitConfig()
	if cfg.RequestsPerMinute != TierConfigs[TierPro].RequestsPerMinute {
		t.Errorf("unexpected pro tier rate: %d", cfg.RequestsPerMinute)
	}

	k = &APIKey{RateLimitTier: "unknown"}
	cfg = k.GetRateLimitConfig()
	if cfg != TierConfigs[TierFree] {
		t.Error("unknown tier should fall back to free")
	}
}

func TestAuthContext_HasScope(t *testing.T) {
	a := &AuthContext{Method: AuthMethodSession, Scopes: []string{ScopeRead, ScopeWrite}}
	if !a.HasScope(ScopeWrite) {
		t.Error("session context should have write scope")
	}
	if a.HasScope(ScopeAdmin) {
		t.Error("session context should not have admin scope")
	}
}
