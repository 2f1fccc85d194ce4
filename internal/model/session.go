// Package model defines domain entities for the application.
package model

import "time"

// Session represents a browser session established through the identity
// provider's OAuth callback. Sessions live in Redis, keyed by a hash of
// the opaque token handed to the client; the token itself is never stored.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
