package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pixelsmith/pixelsmith/internal/model"
)

// Common errors for generation repository operations.
var (
	ErrGenerationNotFound = errors.New("generation not found")
	ErrInvalidCursor      = errors.New("invalid pagination cursor")
)

// PaginationCursor represents decoded cursor for pagination.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateGeneration inserts a new generation record.
// Records are append-only; there is no update or delete operation.
func (r *Repository) CreateGeneration(ctx context.Context, gen *model.Generation) error {
	query := `
		INSERT INTO generations (id, user_id, prompt, image_url, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		gen.ID,
		gen.UserID,
		gen.Prompt,
		gen.ImageURL,
		gen.ContentType,
		gen.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

// GetGenerationByID retrieves a generation by its ID.
func (r *Repository) GetGenerationByID(ctx context.Context, id string) (*model.Generation, error) {
	query := `
		SELECT id, user_id, prompt, image_url, content_type, created_at
		FROM generations
		WHERE id = $1
	`

	gen, err := r.scanGeneration(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGenerationNotFound
		}
		return nil, fmt.Errorf("failed to get generation by ID: %w", err)
	}

	return gen, nil
}

// ListGenerations retrieves a user's generations newest-first with cursor pagination.
func (r *Repository) ListGenerations(ctx context.Context, userID, cursor string, limit int) ([]*model.Generation, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `
		SELECT id, user_id, prompt, image_url, content_type, created_at
		FROM generations
		WHERE user_id = $1
	`
	args := []any{userID}
	argIndex := 2

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var gens []*model.Generation
	for rows.Next() {
		gen, err := r.scanGenerationFromRows(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan generation: %w", err)
		}
		gens = append(gens, gen)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating generations: %w", err)
	}

	var nextCursor string
	if len(gens) > limit {
		gens = gens[:limit]
		last := gens[len(gens)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return gens, nextCursor, nil
}

// CountGenerations returns the number of generations a user owns.
func (r *Repository) CountGenerations(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM generations WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}

	return count, nil
}

// scanGeneration scans a single row into a Generation model.
func (r *Repository) scanGeneration(row pgx.Row) (*model.Generation, error) {
	var gen model.Generation
	err := row.Scan(
		&gen.ID,
		&gen.UserID,
		&gen.Prompt,
		&gen.ImageURL,
		&gen.ContentType,
		&gen.CreatedAt,
	)
	return &gen, err
}

// scanGenerationFromRows scans a row from pgx.Rows into a Generation model.
func (r *Repository) scanGenerationFromRows(rows pgx.Rows) (*model.Generation, error) {
	var gen model.Generation
	err := rows.Scan(
		&gen.ID,
		&gen.UserID,
		&gen.Prompt,
		&gen.ImageURL,
		&gen.ContentType,
		&gen.CreatedAt,
	)
	return &gen, err
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	// PostgreSQL error code 23505 is unique_violation
	if err == nil {
		return false
	}
	msg := err.Error()
	return contains(msg, "23505") || contains(msg, "unique")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// encodeCursor encodes pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes base64 pagination cursor.
func decodeCursor(s string) (*PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}
