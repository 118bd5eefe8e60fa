package session

import (
	"context"
	"sync"
	"time"

	"github.com/shaikwasi806/bank-app/internal/cache"
	"github.com/shaikwasi806/bank-app/internal/model"
)

// Registry is the issued-token registry. A token passes validation only if
// its id is present here, independent of its cryptographic validity. Nothing
// removes entries on logout; they simply lapse with the token's expiry.
type Registry interface {
	// Record appends an issued-token entry.
	Record(ctx context.Context, rec *model.TokenRecord) error
	// Contains reports whether the token id is registered and unexpired.
	Contains(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRegistry keeps issued tokens in a guarded map. Expired entries are
// pruned lazily on lookup.
type MemoryRegistry struct {
	mu     sync.Mutex
	tokens map[string]*model.TokenRecord
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{tokens: make(map[string]*model.TokenRecord)}
}

// Record appends an issued-token entry.
func (r *MemoryRegistry) Record(ctx context.Context, rec *model.TokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *rec
	r.tokens[rec.TokenID] = &cp
	return nil
}

// Contains reports whether the token id is registered and unexpired.
func (r *MemoryRegistry) Contains(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(rec.ExpiresAt) {
		delete(r.tokens, tokenID)
		return false, nil
	}
	return true, nil
}

// RedisRegistry stores issued tokens in Redis with a TTL matching the token
// validity window, so the registry survives process restarts.
type RedisRegistry struct {
	cache *cache.Cache
}

// NewRedisRegistry creates a registry backed by the given cache.
func NewRedisRegistry(c *cache.Cache) *RedisRegistry {
	return &RedisRegistry{cache: c}
}

// Record appends an issued-token entry.
func (r *RedisRegistry) Record(ctx context.Context, rec *model.TokenRecord) error {
	return r.cache.RecordToken(ctx, rec)
}

// Contains reports whether the token id is registered. Expiry is handled by
// the key TTL.
func (r *RedisRegistry) Contains(ctx context.Context, tokenID string) (bool, error) {
	return r.cache.TokenExists(ctx, tokenID)
}
