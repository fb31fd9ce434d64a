package cache

import (
	"context"
	"time"
)

// LayeredStore is a two-level store: process memory in front of a shared
// backend. Writes go through to the backend first.
type LayeredStore struct {
	mem       *MemoryStore
	backend   Store
	memoryTTL time.Duration
}

// NewLayeredStore wraps backend with an L1 memory store.
func NewLayeredStore(backend Store, opts ...LayeredOption) *LayeredStore {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		MemoryTTL:     5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredStore{
		mem:       NewMemoryStore(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		backend:   backend,
		memoryTTL: cfg.MemoryTTL,
	}
}

func (ls *LayeredStore) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := ls.mem.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err := ls.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = ls.mem.Set(ctx, key, v, ls.memoryTTL)
	return v, nil
}

func (ls *LayeredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ls.backend.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	_ = ls.mem.Set(ctx, key, value, ls.l1TTL(ttl))
	return nil
}

func (ls *LayeredStore) Delete(ctx context.Context, keys ...string) error {
	_ = ls.mem.Delete(ctx, keys...)
	return ls.backend.Delete(ctx, keys...)
}

// Update is delegated to the backend since it is the only layer shared
// between replicas. L1 is invalidated afterwards.
func (ls *LayeredStore) Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error {
	err := ls.backend.Update(ctx, key, ttl, fn)
	_ = ls.mem.Delete(ctx, key)
	return err
}

// Close closes both layers.
func (ls *LayeredStore) Close() error {
	_ = ls.mem.Close()
	return ls.backend.Close()
}

func (ls *LayeredStore) l1TTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > ls.memoryTTL {
		return ls.memoryTTL
	}
	return ttl
}
