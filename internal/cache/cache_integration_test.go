package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shaikwasi806/bank-app/internal/model"
	"github.com/shaikwasi806/bank-app/internal/testutil"
)

func newTestCache(t *testing.T) (*Cache, context.Context) {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "TEST_REDIS_URL")
	ctx := context.Background()

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c, ctx
}

func TestCache_TokenLifecycle(t *testing.T) {
	c, ctx := newTestCache(t)

	tokenID := fmt.Sprintf("tok-%d", time.Now().UnixNano())
	rec := &model.TokenRecord{
		TokenID:   tokenID,
		AccountID: 1,
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}

	if err := c.RecordToken(ctx, rec); err != nil {
		t.Fatalf("record token: %v", err)
	}

	exists, err := c.TokenExists(ctx, tokenID)
	if err != nil || !exists {
		t.Errorf("TokenExists = %v, %v, want true", exists, err)
	}

	exists, err = c.TokenExists(ctx, tokenID+"-other")
	if err != nil || exists {
		t.Errorf("unknown token reported as present")
	}
}

func TestCache_ExpiredTokenRejected(t *testing.T) {
	c, ctx := newTestCache(t)

	rec := &model.TokenRecord{
		TokenID:   fmt.Sprintf("tok-%d", time.Now().UnixNano()),
		AccountID: 1,
		IssuedAt:  time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}

	if err := c.RecordToken(ctx, rec); err == nil {
		t.Error("expected an error recording an already expired token")
	}
}

func TestCache_LoginRateLimit(t *testing.T) {
	c, ctx := newTestCache(t)

	// Unique IP per run so earlier runs don't consume this bucket.
	ip := fmt.Sprintf("10.0.%d.%d", time.Now().UnixNano()%200, time.Now().UnixNano()%250)

	burst := 3
	var denied bool
	for i := 0; i < burst+2; i++ {
		result, err := c.CheckLoginRateLimit(ctx, ip, 1, burst)
		if err != nil {
			t.Fatalf("rate limit check: %v", err)
		}
		if !result.Allowed {
			denied = true
			if result.RetryAfter <= 0 {
				t.Error("denied result missing retry-after")
			}
		}
	}

	if !denied {
		t.Error("burst exhausted but no request was denied")
	}
}
