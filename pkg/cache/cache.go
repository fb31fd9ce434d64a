package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
	// ErrConflict is returned by Update when the key kept changing underneath
	// the caller for every retry.
	ErrConflict = errors.New("cache: concurrent update conflict")
)

// UpdateFunc receives the current value (nil and found=false on miss) and
// returns the value to store.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Store is a byte-oriented key value store with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Update atomically reads, transforms and writes a key with respect to
	// every other Update on the same key.
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error
	Close() error
}

// GetJSON reads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, s Store, key string) (T, error) {
	var out T
	raw, err := s.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// SetJSON encodes value and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data, ttl)
}

// UpdateJSON is Update with JSON decoding of the current value. A value that
// fails to decode is treated as absent.
func UpdateJSON[T any](ctx context.Context, s Store, key string, ttl time.Duration, fn func(current T, found bool) (T, error)) error {
	return s.Update(ctx, key, ttl, func(raw []byte, found bool) ([]byte, error) {
		var cur T
		if found {
			if err := json.Unmarshal(raw, &cur); err != nil {
				found = false
				var zero T
				cur = zero
			}
		}
		next, err := fn(cur, found)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}
