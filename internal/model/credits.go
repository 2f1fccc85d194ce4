// Package model defines domain entities for the application.
package model

import "time"

// CreditBalance is a per-user entitlement counter.
// One credit is consumed per successful generation. The balance is only
// mutated through the repository's conditional decrement and refund
// operations and can never go negative.
type CreditBalance struct {
	UserID    string    `json:"user_id"`
	Credits   int       `json:"credits"`
	UpdatedAt time.Time `json:"updated_at"`
}
