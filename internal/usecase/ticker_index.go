package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ValueCheck/internal/domain/models"
	drepo "ValueCheck/internal/domain/repository"
	tcache "ValueCheck/internal/service/cache"
	xlogger "ValueCheck/pkg/logger"
	"ValueCheck/pkg/util"

	"golang.org/x/sync/singleflight"
)

// TickerSource lists every known company.
type TickerSource interface {
	Tickers(ctx context.Context) ([]models.Company, error)
}

// TickerIndex is the cached company list. It serves as the ticker registry
// and as the corpus for search.
type TickerIndex struct {
	source  TickerSource
	cache   *tcache.Tiered
	fresh   time.Duration
	metrics drepo.Metrics
	logger  *xlogger.Logger
	now     func() time.Time

	mu       sync.RWMutex
	entries  []models.Company
	byTicker map[string]models.Company
	loadedAt time.Time

	flights singleflight.Group
}

func NewTickerIndex(source TickerSource, cache *tcache.Tiered, fresh time.Duration, metrics drepo.Metrics, logger *xlogger.Logger) *TickerIndex {
	return &TickerIndex{
		source:  source,
		cache:   cache,
		fresh:   fresh,
		metrics: metrics,
		logger:  logger.With(xlogger.String("component", "ticker_index")),
		now:     time.Now,
	}
}

// Entries returns the full list. A stale copy is served when the source fails.
func (ix *TickerIndex) Entries(ctx context.Context) ([]models.Company, error) {
	ix.mu.RLock()
	entries, loadedAt := ix.entries, ix.loadedAt
	ix.mu.RUnlock()
	if entries != nil && ix.now().Sub(loadedAt) <= ix.fresh {
		return entries, nil
	}

	v, err, _ := ix.flights.Do(tcache.TickerIndexKey, func() (interface{}, error) {
		return ix.load(ctx)
	})
	if err != nil {
		if entries != nil {
			ix.logger.Warn("ticker index refresh failed, keeping loaded copy", xlogger.Error(err))
			return entries, nil
		}
		return nil, err
	}
	return v.([]models.Company), nil
}

// Lookup resolves an exact ticker.
func (ix *TickerIndex) Lookup(ctx context.Context, ticker string) (models.Company, error) {
	if _, err := ix.Entries(ctx); err != nil {
		return models.Company{}, err
	}
	ix.mu.RLock()
	c, ok := ix.byTicker[util.NormalizeTicker(ticker)]
	ix.mu.RUnlock()
	if !ok {
		return models.Company{}, models.ErrTickerNotFound
	}
	return c, nil
}

func (ix *TickerIndex) load(ctx context.Context) ([]models.Company, error) {
	var cached []models.Company
	state, updatedAt, err := ix.cache.Get(ctx, tcache.TickerIndexKey, &cached)
	if err != nil {
		ix.logger.Warn("ticker index cache read failed", xlogger.Error(err))
		state = tcache.Miss
	}
	if state == tcache.Fresh {
		ix.install(cached, updatedAt)
		return cached, nil
	}

	fetched, ferr := ix.source.Tickers(ctx)
	if ferr == nil && len(fetched) > 0 {
		at, perr := ix.cache.Put(ctx, tcache.TickerIndexKey, fetched)
		if perr != nil {
			ix.logger.Warn("ticker index cache write failed", xlogger.Error(perr))
			at = ix.now()
		}
		ix.install(fetched, at)
		ix.logger.Info("ticker index loaded", xlogger.Int("entries", len(fetched)))
		return fetched, nil
	}
	if ferr == nil {
		ferr = fmt.Errorf("ticker source returned no entries")
	}
	ix.metrics.RecordUpstreamError("sec")

	if state == tcache.Stale {
		ix.logger.Warn("ticker source failed, serving stale index",
			xlogger.String("cached_at", updatedAt.UTC().Format(time.RFC3339)),
			xlogger.Error(ferr),
		)
		ix.install(cached, updatedAt)
		return cached, nil
	}
	return nil, fmt.Errorf("load ticker index: %w", ferr)
}

func (ix *TickerIndex) install(entries []models.Company, at time.Time) {
	byTicker := make(map[string]models.Company, len(entries))
	for _, c := range entries {
		if _, dup := byTicker[c.Ticker]; !dup {
			byTicker[c.Ticker] = c
		}
	}
	ix.mu.Lock()
	ix.entries, ix.byTicker, ix.loadedAt = entries, byTicker, at
	ix.mu.Unlock()
}
