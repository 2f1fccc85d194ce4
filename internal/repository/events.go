package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pixelsmith/pixelsmith/internal/model"
)

// BulkInsertEvents inserts generation events with idempotency via
// ON CONFLICT DO NOTHING on the stream message ID.
func (r *Repository) BulkInsertEvents(ctx context.Context, events []*model.GenerationEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO generation_events (
			id, event_id, generation_id, user_id, status,
			persisted, credits_remaining, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.GenerationID,
			event.UserID,
			event.Status,
			event.Persisted,
			event.CreditsRemaining,
			event.CompletedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert event %d: %w", i, err)
		}
	}

	return nil
}

// UpdateDailyUsage recalculates and upserts usage_daily rows for every
// (user, day) combination touched by the batch. Recalculating from
// generation_events keeps the rollup correct under redelivery.
func (r *Repository) UpdateDailyUsage(ctx context.Context, events []*model.GenerationEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, key := range uniqueUsageKeys(events) {
		usage, err := r.recalculateDailyUsage(ctx, key.userID, key.day)
		if err != nil {
			return fmt.Errorf("recalculate usage %s:%s: %w", key.userID, key.day.Format("2006-01-02"), err)
		}
		if err := r.upsertDailyUsage(ctx, usage); err != nil {
			return fmt.Errorf("upsert usage %s:%s: %w", key.userID, key.day.Format("2006-01-02"), err)
		}
	}

	return nil
}

type usageKey struct {
	userID string
	day    time.Time
}

func uniqueUsageKeys(events []*model.GenerationEvent) []usageKey {
	seen := make(map[string]usageKey)
	for _, event := range events {
		day := event.CompletedAt.UTC().Truncate(24 * time.Hour)
		id := fmt.Sprintf("%s:%s", event.UserID, day.Format("2006-01-02"))
		seen[id] = usageKey{userID: event.UserID, day: day}
	}

	keys := make([]usageKey, 0, len(seen))
	for _, key := range seen {
		keys = append(keys, key)
	}
	return keys
}

func (r *Repository) recalculateDailyUsage(ctx context.Context, userID string, day time.Time) (*model.DailyUsage, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM generation_events
		WHERE user_id = $1 AND completed_at >= $2 AND completed_at < $3
	`

	usage := &model.DailyUsage{UserID: userID, Day: start}
	err := r.pool.QueryRow(ctx, query, userID, start, end).Scan(
		&usage.Generations,
		&usage.Succeeded,
		&usage.Failed,
		&usage.Rejected,
	)
	if err != nil {
		return nil, fmt.Errorf("query generation events: %w", err)
	}

	return usage, nil
}

func (r *Repository) upsertDailyUsage(ctx context.Context, usage *model.DailyUsage) error {
	query := `
		INSERT INTO usage_daily (user_id, day, generations, succeeded, failed, rejected)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day) DO UPDATE SET
			generations = EXCLUDED.generations,
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed,
			rejected = EXCLUDED.rejected
	`

	_, err := r.pool.Exec(ctx, query,
		usage.UserID,
		usage.Day,
		usage.Generations,
		usage.Succeeded,
		usage.Failed,
		usage.Rejected,
	)

	return err
}

// GetDailyUsage retrieves usage rollups for a user within a date range.
func (r *Repository) GetDailyUsage(ctx context.Context, userID string, from, to time.Time) ([]*model.DailyUsage, error) {
	query := `
		SELECT user_id, day, generations, succeeded, failed, rejected
		FROM usage_daily
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day DESC
	`

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily usage: %w", err)
	}
	defer rows.Close()

	var usages []*model.DailyUsage
	for rows.Next() {
		var usage model.DailyUsage
		if err := rows.Scan(
			&usage.UserID,
			&usage.Day,
			&usage.Generations,
			&usage.Succeeded,
			&usage.Failed,
			&usage.Rejected,
		); err != nil {
			return nil, fmt.Errorf("scan daily usage: %w", err)
		}
		usages = append(usages, &usage)
	}

	return usages, rows.Err()
}
