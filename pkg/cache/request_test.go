package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countingCache wraps Memory and counts shared-tier reads.
type countingCache struct {
	*Memory
	gets int
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets++
	return c.Memory.Get(ctx, key)
}

func TestRequestMemoizesSharedHits(t *testing.T) {
	shared := &countingCache{Memory: NewMemory(0)}
	defer shared.Close()
	ctx := context.Background()

	assert.NoError(t, shared.Set(ctx, "k", []byte("v"), time.Minute))

	r := NewRequest(shared)
	for i := 0; i < 3; i++ {
		got, err := r.Get(ctx, "k")
		assert.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
	}

	// Only the first read goes to the shared tier.
	assert.Equal(t, 1, shared.gets)
}

func TestRequestSetWritesBothTiers(t *testing.T) {
	shared := NewMemory(0)
	defer shared.Close()
	ctx := context.Background()

	r := NewRequest(shared)
	assert.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))

	// Visible through the shared tier for later requests.
	got, err := shared.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// And locally for this one.
	got, err = r.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestRequestWithoutSharedTier(t *testing.T) {
	ctx := context.Background()
	r := NewRequest(nil)

	_, err := r.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	assert.NoError(t, r.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := r.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestRequestScopesAreIndependent(t *testing.T) {
	ctx := context.Background()

	a := NewRequest(nil)
	assert.NoError(t, a.Set(ctx, "k", []byte("v"), time.Minute))

	b := NewRequest(nil)
	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
