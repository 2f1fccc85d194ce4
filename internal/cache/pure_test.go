package cache

import (
	"encoding/json"
	"testing"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	ip := "192.168.1.100"

	hash1 := hashIP(ip)
	hash2 := hashIP(ip)

	if hash1 != hash2 {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv4 localhost", "127.0.0.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash := hashIP(tt.ip)
			// hashIP uses first 8 bytes of SHA256, encoded as 16 hex chars
			if len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
		})
	}
}

func TestHashIP_Different(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip1  string
		ip2  string
	}{
		{"different IPv4", "192.168.1.1", "192.168.1.2"},
		{"different last octet", "10.0.0.1", "10.0.0.2"},
		{"IPv4 vs IPv6", "127.0.0.1", "::1"},
		{"public vs private", "8.8.8.8", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash1 := hashIP(tt.ip1)
			hash2 := hashIP(tt.ip2)

			if hash1 == hash2 {
				t.Errorf("Different IPs should produce different hashes: %q and %q both produced %s", tt.ip1, tt.ip2, hash1)
			}
		})
	}
}

func TestCachedAuthContext_RoundTrip(t *testing.T) {
	t.Parallel()

	cached := CachedAuthContext{
		KeyID:         "key-123",
		KeyPrefix:     "px_live_abc123",
		UserID:        "user-456",
		Scopes:        []string{"read", "write"},
		RateLimitTier: "pro",
	}

	data, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded CachedAuthContext
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.KeyID != cached.KeyID {
		t.Errorf("KeyID = %q, want %q", decoded.KeyID, cached.KeyID)
	}
	if decoded.UserID != cached.UserID {
		t.Errorf("UserID = %q, want %q", decoded.UserID, cached.UserID)
	}
	if len(decoded.Scopes) != 2 {
		t.Errorf("Scopes length = %d, want 2", len(decoded.Scopes))
	}
}

func TestSessionKeyPrefix(t *testing.T) {
	t.Parallel()

	// Session, balance, and auth context entries must not collide in Redis.
	prefixes := []string{sessionPrefix, balancePrefix, authCachePrefix, rateLimitAPIPrefix, rateLimitIPPrefix}
	seen := make(map[string]bool)
	for _, p := range prefixes {
		if seen[p] {
			t.Errorf("Duplicate Redis key prefix %q", p)
		}
		seen[p] = true
	}
}
