package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pixelsmith/pixelsmith/internal/model"
)

// Common errors for credit ledger operations.
var (
	ErrBalanceNotFound     = errors.New("credit balance not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// GetCredits retrieves a user's current credit balance.
func (r *Repository) GetCredits(ctx context.Context, userID string) (*model.CreditBalance, error) {
	query := `
		SELECT user_id, credits, updated_at
		FROM credits
		WHERE user_id = $1
	`

	var balance model.CreditBalance
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&balance.UserID,
		&balance.Credits,
		&balance.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}

	return &balance, nil
}

// ReserveCredit atomically consumes one credit if the balance allows it.
// The conditional UPDATE makes the gate check and the decrement a single
// server-side operation, so two concurrent requests cannot both pass a
// racing read before either decrements. Returns the remaining balance,
// or ErrInsufficientCredits when the balance is already zero.
func (r *Repository) ReserveCredit(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE credits
		SET credits = credits - 1, updated_at = NOW()
		WHERE user_id = $1 AND credits >= 1
		RETURNING credits
	`

	var remaining int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either no row or credits = 0; disambiguate for the caller.
			if _, lookupErr := r.GetCredits(ctx, userID); lookupErr != nil {
				return 0, lookupErr
			}
			return 0, ErrInsufficientCredits
		}
		return 0, fmt.Errorf("failed to reserve credit: %w", err)
	}

	return remaining, nil
}

// RefundCredit returns one previously reserved credit.
// Called when the generation call fails after the reservation succeeded.
func (r *Repository) RefundCredit(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE credits
		SET credits = credits + 1, updated_at = NOW()
		WHERE user_id = $1
		RETURNING credits
	`

	var remaining int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBalanceNotFound
		}
		return 0, fmt.Errorf("failed to refund credit: %w", err)
	}

	return remaining, nil
}

// GrantCredits adds credits to a user's balance (admin / bootstrap path).
func (r *Repository) GrantCredits(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("grant amount must be positive, got %d", amount)
	}

	query := `
		UPDATE credits
		SET credits = credits + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING credits
	`

	var remaining int
	err := r.pool.QueryRow(ctx, query, userID, amount).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrBalanceNotFound
		}
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}

	return remaining, nil
}
