// Package model defines domain entities for the application.
package model

import "time"

// User mirrors the identity provider's subject. The provider owns the
// account lifecycle; a local row is provisioned on first login so that
// credits and generations have something to reference.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
