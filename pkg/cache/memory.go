package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value      []byte
	expiration time.Time
}

// Memory is an in-process TTL cache, the default backend. Expired entries
// are dropped lazily on read and swept by a background loop.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem

	done      chan struct{}
	closeOnce sync.Once
}

func NewMemory(cleanupInterval time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]memoryItem),
		done:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.cleanupLoop(cleanupInterval)
	}
	return m
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(item.expiration) {
		return nil, ErrKeyNotFound
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.items[key] = memoryItem{value: stored, expiration: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	return nil
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, item := range m.items {
				if now.After(item.expiration) {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
