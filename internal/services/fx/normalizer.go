package fx

import (
	"context"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/domain/repository"
	tcache "ValueCheck/internal/service/cache"
	xlogger "ValueCheck/pkg/logger"
	"ValueCheck/pkg/util"
)

const USD = "USD"

type cachedRate struct {
	Rate float64 `json:"rate"`
}

// Normalizer converts reported currency amounts into USD.
//
// Rates are cached per currency. When the provider fails a stale rate is
// used, and when there is none the amount passes through at 1:1 with a
// warning and a counted fallback.
type Normalizer struct {
	rates   repository.RateProvider
	cache   *tcache.Tiered
	metrics repository.Metrics
	logger  *xlogger.Logger
}

func NewNormalizer(rates repository.RateProvider, cache *tcache.Tiered, metrics repository.Metrics, logger *xlogger.Logger) *Normalizer {
	return &Normalizer{rates: rates, cache: cache, metrics: metrics, logger: logger}
}

// Rate returns the currency to USD multiplier. It never fails.
func (n *Normalizer) Rate(ctx context.Context, currency string) float64 {
	if currency == USD || !util.IsCurrencyCode(currency) {
		return 1
	}

	key := tcache.FXKey(currency)
	var cached cachedRate
	state, _, err := n.cache.Get(ctx, key, &cached)
	if err != nil {
		n.logger.Warn("fx cache read failed", xlogger.String("currency", currency), xlogger.Error(err))
		state = tcache.Miss
	}
	if state == tcache.Fresh && cached.Rate > 0 {
		return cached.Rate
	}

	rate, err := n.rates.RateToUSD(ctx, currency)
	if err == nil && rate > 0 {
		if _, perr := n.cache.Put(ctx, key, cachedRate{Rate: rate}); perr != nil {
			n.logger.Warn("fx cache write failed", xlogger.String("currency", currency), xlogger.Error(perr))
		}
		return rate
	}

	n.metrics.RecordUpstreamError("fx")
	n.metrics.RecordFXFallback(currency)
	if state == tcache.Stale && cached.Rate > 0 {
		n.logger.Warn("fx provider failed, using stale rate",
			xlogger.String("currency", currency),
			xlogger.Float64("rate", cached.Rate),
			xlogger.Error(err),
		)
		return cached.Rate
	}
	n.logger.Warn("fx provider failed, passing amounts through 1:1",
		xlogger.String("currency", currency),
		xlogger.Error(err),
	)
	return 1
}

// ToUSD converts value reported in unit. Non-currency units are unchanged.
func (n *Normalizer) ToUSD(ctx context.Context, value float64, unit string) float64 {
	return value * n.Rate(ctx, unit)
}

// NormalizeSeries returns a copy of s expressed in USD. ReportedUnit keeps
// the original currency.
func (n *Normalizer) NormalizeSeries(ctx context.Context, s models.Series) models.Series {
	if s.Empty() || s.Unit == USD || !util.IsCurrencyCode(s.Unit) {
		return s
	}
	rate := n.Rate(ctx, s.Unit)

	out := models.Series{Tag: s.Tag, Unit: USD, ReportedUnit: s.Unit, Facts: make([]models.Fact, len(s.Facts))}
	for i, f := range s.Facts {
		f.Value *= rate
		f.Unit = USD
		out.Facts[i] = f
	}
	return out
}
