package poscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"evfleet-console/internal/domain"
)

const (
	// Single key: estimates are whole-fleet and replaced on every refresh.
	positionsKey = "fleet:positions"
	// Slightly longer than the driver-view refresh interval, so the cache
	// survives one missed tick but never serves ancient markers.
	positionsTTL = 90 * time.Second
)

// RedisPositionCache holds the latest estimated positions of all
// in-progress routes. Advisory only: a fleet overview paints cached markers
// while its first fetch is in flight, then replaces them.
type RedisPositionCache struct {
	client *redis.Client
}

func NewRedisPositionCache(addr, password string) (*RedisPositionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisPositionCache{client: client}, nil
}

func (c *RedisPositionCache) SetAll(ctx context.Context, positions []domain.VehiclePosition) error {
	data, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("position cache: encode: %w", err)
	}

	if err := c.client.Set(ctx, positionsKey, data, positionsTTL).Err(); err != nil {
		return fmt.Errorf("position cache: set: %w", err)
	}
	return nil
}

// GetAll returns nil when no fresh estimate is cached.
func (c *RedisPositionCache) GetAll(ctx context.Context) ([]domain.VehiclePosition, error) {
	data, err := c.client.Get(ctx, positionsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("position cache: get: %w", err)
	}

	var positions []domain.VehiclePosition
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("position cache: decode: %w", err)
	}
	return positions, nil
}

func (c *RedisPositionCache) Close() error {
	return c.client.Close()
}
