package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/kodi/pkg/models"
)

const generationKey = "catalog:generation"

// EstimateCache stores estimates under the current catalog generation. Bumping the
// generation after a normalization or recode pass orphans every older entry, which
// then expires by TTL.
type EstimateCache struct {
	client    *Client
	keyPrefix string
	ttl       time.Duration
}

func NewEstimateCache(client *Client, keyPrefix string, ttl time.Duration) *EstimateCache {
	if keyPrefix == "" {
		keyPrefix = "kodi:"
	}
	return &EstimateCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *EstimateCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.rdb.Get(ctx, c.keyPrefix+generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *EstimateCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%sestimate:%d:%s", c.keyPrefix, gen, key)
}

// Get looks key up under the current catalog generation. The returned slot pins that generation
// for a following Set.
func (c *EstimateCache) Get(ctx context.Context, key string) (*models.Estimate, string, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to read catalog generation: %w", err)
	}
	slot := c.entryKey(gen, key)

	raw, err := c.client.rdb.Get(ctx, slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, slot, false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to read cached estimate: %w", err)
	}

	var estimate models.Estimate
	if err := json.Unmarshal(raw, &estimate); err != nil {
		return nil, slot, false, fmt.Errorf("failed to decode cached estimate: %w", err)
	}
	return &estimate, slot, true, nil
}

// Set stores estimate in a slot returned by Get. A slot of a superseded generation is never read again.
func (c *EstimateCache) Set(ctx context.Context, slot string, estimate *models.Estimate) error {
	raw, err := json.Marshal(estimate)
	if err != nil {
		return fmt.Errorf("failed to encode estimate: %w", err)
	}
	return c.client.rdb.Set(ctx, slot, raw, c.ttl).Err()
}

// Invalidate starts a new catalog generation.
func (c *EstimateCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.rdb.Incr(ctx, c.keyPrefix+generationKey).Result()
	if err != nil {
		return fmt.Errorf("failed to bump catalog generation: %w", err)
	}
	c.client.logger.WithContext(ctx).Debugf("Catalog generation is now %d", gen)
	return nil
}
