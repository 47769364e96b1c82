package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	assert.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := m.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()

	_, err := m.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	assert.NoError(t, m.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryDelete(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	assert.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, m.Delete(ctx, "k"))

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory(0)
	defer m.Close()
	ctx := context.Background()

	value := []byte("original")
	assert.NoError(t, m.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := m.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, err := m.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}
