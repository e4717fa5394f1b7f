package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// deadStore points at nothing; every redis call fails fast. The store
// must degrade to miss/no-op in that state, never error or panic.
func deadStore(t *testing.T) *Store {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:         "127.0.0.1:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, zap.NewNop())
}

func TestUnreachableRedisDegradesToMiss(t *testing.T) {
	s := deadStore(t)
	ctx := context.Background()

	_, err := s.ListKey(ctx, EntityUsers, 1, 10, "", "")
	assert.Error(t, err)

	var out map[string]any
	assert.False(t, s.GetJSON(ctx, "some-key", &out))

	// Mutation paths must not be affected by cache failures.
	s.Bump(ctx, EntityUsers)
	s.SetJSON(ctx, "some-key", map[string]int{"a": 1}, DefaultTTL)
}

func TestEmptyKeyIsAlwaysAMiss(t *testing.T) {
	s := deadStore(t)
	ctx := context.Background()

	var out map[string]any
	assert.False(t, s.GetJSON(ctx, "", &out))
	s.SetJSON(ctx, "", map[string]int{"a": 1}, DefaultTTL) // no-op, no panic
}
