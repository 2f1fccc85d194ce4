package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pixelsmith/pixelsmith/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// ProvisionUser creates the local user row and seeds its credit balance
// in one transaction. Called on first login; a no-op for existing users.
// The user ID is the identity provider's subject, so concurrent first
// logins race on the same primary key and the loser just reads the row.
func (r *Repository) ProvisionUser(ctx context.Context, user *model.User, startingCredits int) (*model.User, error) {
	existing, err := r.GetUserByID(ctx, user.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user.CreatedAt = time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, created_at) VALUES ($1, $2, $3)`,
		user.ID, user.Email, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the race - another request provisioned this user.
			return r.GetUserByID(ctx, user.ID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO credits (user_id, credits, updated_at) VALUES ($1, $2, $3)`,
		user.ID, startingCredits, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to seed credit balance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user provisioning: %w", err)
	}

	return user, nil
}
