package cache

import (
	"context"
	"time"
)

// Request is the per-request memo tier layered over a shared Cache. Hits are
// remembered locally for the life of the request, so repeated lookups within
// one render touch the shared tier at most once. It is not safe for
// concurrent use; each request owns its own instance and discards it at the
// end.
type Request struct {
	shared Cache
	local  map[string][]byte
}

// NewRequest wraps the shared cache for one request scope. shared may be nil,
// leaving only the local tier.
func NewRequest(shared Cache) *Request {
	return &Request{
		shared: shared,
		local:  make(map[string][]byte),
	}
}

func (r *Request) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := r.local[key]; ok {
		return v, nil
	}
	if r.shared == nil {
		return nil, ErrKeyNotFound
	}
	v, err := r.shared.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	r.local[key] = v
	return v, nil
}

func (r *Request) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.local[key] = value
	if r.shared == nil {
		return nil
	}
	return r.shared.Set(ctx, key, value, ttl)
}
