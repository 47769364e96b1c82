package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is the shared tier consulted before hitting Airtable on the
// single-record path. Implementations must be safe for concurrent use
// across requests.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrKeyNotFound is returned on a cache miss.
var ErrKeyNotFound = errors.New("key not found")
