package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ValueCheck/pkg/cache"
)

// State classifies a lookup against the fresh and stale windows.
type State int

const (
	Miss State = iota
	Stale
	Fresh
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Envelope is the persisted form of every tiered entry.
type Envelope struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt int64           `json:"updatedAt"`
}

// Tiered keeps entries for the stale window and reports whether a hit is
// still inside the fresh window.
type Tiered struct {
	store cache.Store
	fresh time.Duration
	stale time.Duration
	now   func() time.Time
}

type Option func(*Tiered)

// WithClock overrides the clock used to age entries.
func WithClock(now func() time.Time) Option {
	return func(t *Tiered) { t.now = now }
}

func NewTiered(store cache.Store, fresh, stale time.Duration, opts ...Option) *Tiered {
	t := &Tiered{store: store, fresh: fresh, stale: stale, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get decodes the payload into dest and returns its state and write time.
// Undecodable entries are reported as misses.
func (t *Tiered) Get(ctx context.Context, key string, dest interface{}) (State, time.Time, error) {
	raw, err := t.store.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return Miss, time.Time{}, nil
	}
	if err != nil {
		return Miss, time.Time{}, err
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Payload) == 0 {
		return Miss, time.Time{}, nil
	}
	updated := time.UnixMilli(env.UpdatedAt)
	age := t.now().Sub(updated)

	state := Fresh
	switch {
	case age > t.stale:
		return Miss, time.Time{}, nil
	case age > t.fresh:
		state = Stale
	}

	if err := json.Unmarshal(env.Payload, dest); err != nil {
		return Miss, time.Time{}, nil
	}
	return state, updated, nil
}

// Put stores value stamped with the current time and returns that time.
func (t *Tiered) Put(ctx context.Context, key string, value interface{}) (time.Time, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode %s: %w", key, err)
	}
	now := t.now()
	data, err := json.Marshal(Envelope{Payload: payload, UpdatedAt: now.UnixMilli()})
	if err != nil {
		return time.Time{}, err
	}
	if err := t.store.Set(ctx, key, data, t.stale); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Keys used across the service.
func StockKey(ticker, period string) string {
	return cache.GenerateKeyWithParams("stock", ticker, period)
}

func FXKey(currency string) string { return cache.GenerateKey("fx", currency) }

const (
	TickerIndexKey = "sec:tickers:index"
	TrendingKey    = "trending"
)
