package usecase

import (
	"context"
	"fmt"
	"time"

	"ValueCheck/internal/domain/models"
	tcache "ValueCheck/internal/service/cache"
	xlogger "ValueCheck/pkg/logger"
	"ValueCheck/pkg/util"
)

// Trending serves the configured list of highlighted tickers.
type Trending struct {
	cache   *tcache.Tiered
	tickers []string
	logger  *xlogger.Logger
	now     func() time.Time
}

func NewTrending(cache *tcache.Tiered, tickers []string, logger *xlogger.Logger) *Trending {
	normalized := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t = util.NormalizeTicker(t); t != "" {
			normalized = append(normalized, t)
		}
	}
	return &Trending{
		cache:   cache,
		tickers: normalized,
		logger:  logger.With(xlogger.String("component", "trending")),
		now:     time.Now,
	}
}

// Get returns the cached payload, rebuilding it when the entry is not fresh.
func (t *Trending) Get(ctx context.Context) (*models.TrendingPayload, error) {
	var cached models.TrendingPayload
	state, _, err := t.cache.Get(ctx, tcache.TrendingKey, &cached)
	if err != nil {
		t.logger.Warn("trending cache read failed", xlogger.Error(err))
	}
	if err == nil && state == tcache.Fresh {
		return &cached, nil
	}
	payload, err := t.Refresh(ctx)
	if err != nil {
		t.logger.Warn("trending cache write failed", xlogger.Error(err))
	}
	return payload, nil
}

// Refresh rewrites the payload with today's date. The payload is returned
// even when the write fails.
func (t *Trending) Refresh(ctx context.Context) (*models.TrendingPayload, error) {
	payload := &models.TrendingPayload{
		Tickers:     append([]string(nil), t.tickers...),
		LastUpdated: util.UTCDay(t.now()),
	}
	if _, err := t.cache.Put(ctx, tcache.TrendingKey, payload); err != nil {
		return payload, fmt.Errorf("store trending: %w", err)
	}
	return payload, nil
}
