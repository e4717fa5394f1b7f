// Package cache implements the version-counter response cache on Redis.
// List responses are stored under keys that embed a per-entity version
// number; bumping the counter on every mutation orphans all previously
// cached pages at once, with no need to enumerate and delete keys.
//
// The cache is strictly best-effort: a read error is a miss, a write
// error is ignored. Correctness always comes from the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Entity namespaces for the version counters.
const (
	EntityUsers = "Users"
	EntityRoles = "Roles"
)

// DefaultTTL bounds how long a cached page can outlive its version even
// if no mutation ever bumps the counter.
const DefaultTTL = 5 * time.Minute

type Store struct {
	RDB *redis.Client
	Log *zap.Logger
}

func New(rdb *redis.Client, log *zap.Logger) *Store {
	return &Store{RDB: rdb, Log: log}
}

// Version returns the current version counter for an entity,
// initialising it to 1 on first use.
func (s *Store) Version(ctx context.Context, entity string) (int64, error) {
	key := entity + ":version"
	v, err := s.RDB.Get(ctx, key).Int64()
	if err == redis.Nil {
		if err := s.RDB.Set(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return v, err
}

// Bump increments the version counter, implicitly invalidating every
// cache entry built under the previous version. Errors are logged and
// swallowed: a stale cache page is tolerable, a failed mutation is not.
func (s *Store) Bump(ctx context.Context, entity string) {
	if err := s.RDB.Incr(ctx, entity+":version").Err(); err != nil {
		s.Log.Warn("cache version bump failed", zap.String("entity", entity), zap.Error(err))
	}
}

// ListKey builds the cache key for a paginated list response:
// version plus the page/limit/search(/sort) fingerprint of the query.
func (s *Store) ListKey(ctx context.Context, entity string, page, limit int, search, sortBy string) (string, error) {
	v, err := s.Version(ctx, entity)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:v%d:page=%d:limit=%d:search=%s", entity, v, page, limit, search)
	if sortBy != "" {
		key += ":sort=" + sortBy
	}
	return key, nil
}

// GetJSON loads a cached value into out. The bool reports a hit; every
// failure mode is a miss.
func (s *Store) GetJSON(ctx context.Context, key string, out any) bool {
	if key == "" {
		return false
	}
	b, err := s.RDB.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// SetJSON stores a value with a TTL, logging and swallowing failures.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if key == "" {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		s.Log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.RDB.Set(ctx, key, b, ttl).Err(); err != nil {
		s.Log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
