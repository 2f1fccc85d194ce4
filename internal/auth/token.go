// Package auth provides authentication utilities for API keys and sessions.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SessionTokenLen is the byte length of the random session token.
const SessionTokenLen = 32

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "pixelsmith_session"

// GenerateSessionToken creates an opaque session token for a browser cookie.
// The token itself is handed to the client; only its SHA-256 digest is used
// as the server-side lookup key, so a leaked session store does not expose
// usable tokens.
func GenerateSessionToken() (string, error) {
	raw := make([]byte, SessionTokenLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// SessionLookupKey derives the server-side store key for a session token.
func SessionLookupKey(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
