// Package metadata stores small console settings in the local database:
// the last opened resource, the last counters fetched by the poller and the
// salt of the cache key.
package metadata

import "context"

const (
	KeyResource  = "console.resource"
	KeyCounts    = "nav.counts"
	KeyCacheSalt = "cache.salt"
)

type Repository interface {
	// Get decodes the value stored under key into dst. It reports false
	// when the key is absent.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}
