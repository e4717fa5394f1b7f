package handler

import (
	"context"
	"time"
)

// VersionCache is the slice of the version-counter response cache the
// handlers depend on. *cache.Store is the production implementation.
type VersionCache interface {
	ListKey(ctx context.Context, entity string, page, limit int, search, sortBy string) (string, error)
	GetJSON(ctx context.Context, key string, out any) bool
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration)
	Bump(ctx context.Context, entity string)
}
