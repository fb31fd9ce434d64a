package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

func (m *memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryStore implements Store in process memory with LRU eviction.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	access  map[string]time.Time
	maxSize int
	now     func() time.Time

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
		Now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ms := &MemoryStore{
		data:    make(map[string]*memoryItem),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
		now:     cfg.Now,
		stop:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go ms.cleanupExpired(cfg.CleanupInterval)
	}
	return ms
}

func (ms *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	v, ok := ms.lookup(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (ms *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.put(key, value, ttl)
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, key := range keys {
		delete(ms.data, key)
		delete(ms.access, key)
	}
	return nil
}

func (ms *MemoryStore) Update(_ context.Context, key string, ttl time.Duration, fn UpdateFunc) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	cur, found := ms.lookup(key)
	next, err := fn(cur, found)
	if err != nil {
		return err
	}
	ms.put(key, next, ttl)
	return nil
}

// Len reports the number of live keys.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.data)
}

// lookup expects ms.mu held.
func (ms *MemoryStore) lookup(key string) ([]byte, bool) {
	item, ok := ms.data[key]
	if !ok {
		return nil, false
	}
	now := ms.now()
	if item.expired(now) {
		delete(ms.data, key)
		delete(ms.access, key)
		return nil, false
	}
	ms.access[key] = now
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true
}

// put expects ms.mu held.
func (ms *MemoryStore) put(key string, value []byte, ttl time.Duration) {
	if _, exists := ms.data[key]; !exists && ms.maxSize > 0 && len(ms.data) >= ms.maxSize {
		ms.evictLRU()
	}

	now := ms.now()
	item := &memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expireAt = now.Add(ttl)
	}
	ms.data[key] = item
	ms.access[key] = now
}

func (ms *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	for key, at := range ms.access {
		if oldestKey == "" || at.Before(oldestTime) {
			oldestKey, oldestTime = key, at
		}
	}
	if oldestKey != "" {
		delete(ms.data, oldestKey)
		delete(ms.access, oldestKey)
	}
}

func (ms *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := ms.now()
			for key, item := range ms.data {
				if item.expired(now) {
					delete(ms.data, key)
					delete(ms.access, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (ms *MemoryStore) Close() error {
	ms.closeOnce.Do(func() { close(ms.stop) })
	return nil
}
