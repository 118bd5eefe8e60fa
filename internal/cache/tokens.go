package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shaikwasi806/bank-app/internal/model"
)

// tokenPrefix is the Redis key prefix for issued-token registry entries.
const tokenPrefix = "session:token:"

// RecordToken stores an issued-token registry entry. The key expires when
// the token does, so the registry never outlives the token it guards.
func (c *Cache) RecordToken(ctx context.Context, rec *model.TokenRecord) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token %s already expired", rec.TokenID)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}

	return c.client.Set(ctx, tokenPrefix+rec.TokenID, data, ttl).Err()
}

// TokenExists reports whether the token id is present in the registry.
func (c *Cache) TokenExists(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, tokenPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check token registry: %w", err)
	}
	return n > 0, nil
}
