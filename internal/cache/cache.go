package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/classbank/classbank/internal/types"
)

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from the cache
	// Returns the value and a boolean indicating whether the key was found
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set adds a value to the cache with the specified expiration
	// If expiration is 0, the item never expires (but may be evicted)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)

	// Delete removes a key from the cache
	Delete(ctx context.Context, key string)

	// DeleteByPrefix removes all keys with the given prefix
	DeleteByPrefix(ctx context.Context, prefix string)

	// Flush removes all items from the cache
	Flush(ctx context.Context)
}

// Predefined cache key prefixes for different entity types
const (
	PrefixPolicy = "policy:v1:"
)

// GenerateKey builds a tenant-scoped cache key. Keys must always carry the
// tenant so a cached read can never leak across tenants.
func GenerateKey(prefix string, ctx context.Context, parts ...interface{}) string {
	key := prefix + types.GetTenantID(ctx)
	for _, part := range parts {
		key = fmt.Sprintf("%s:%v", key, part)
	}
	return key
}
