package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pixelsmith/pixelsmith/internal/model"
)

const (
	// sessionPrefix is the Redis key prefix for login sessions.
	sessionPrefix = "session:"
)

// SetSession stores a session under its lookup key with the given TTL.
func (c *Cache) SetSession(ctx context.Context, lookupKey string, session *model.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := sessionPrefix + lookupKey
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by its lookup key.
// Returns nil, nil when the session does not exist or has expired.
func (c *Cache) GetSession(ctx context.Context, lookupKey string) (*model.Session, error) {
	key := sessionPrefix + lookupKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// DeleteSession removes a session. Used on logout.
func (c *Cache) DeleteSession(ctx context.Context, lookupKey string) error {
	key := sessionPrefix + lookupKey
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
