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
	// balancePrefix is the Redis key prefix for cached credit balances.
	balancePrefix = "balance:"
	// balanceTTL keeps balance reads cheap without letting stale values linger.
	balanceTTL = 30 * time.Second
)

// SetBalance caches a credit balance for a user.
func (c *Cache) SetBalance(ctx context.Context, balance *model.CreditBalance) error {
	data, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to marshal balance: %w", err)
	}

	key := balancePrefix + balance.UserID
	if err := c.client.Set(ctx, key, data, balanceTTL).Err(); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}

	return nil
}

// GetBalance retrieves a cached credit balance.
// Returns nil, nil on cache miss.
func (c *Cache) GetBalance(ctx context.Context, userID string) (*model.CreditBalance, error) {
	key := balancePrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	var balance model.CreditBalance
	if err := json.Unmarshal(data, &balance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balance: %w", err)
	}

	return &balance, nil
}

// InvalidateBalance removes a cached balance after a credit mutation.
func (c *Cache) InvalidateBalance(ctx context.Context, userID string) error {
	key := balancePrefix + userID
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate balance: %w", err)
	}
	return nil
}
