package quotes

import (
	"context"
	"errors"
	"fmt"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/domain/repository"
	xlogger "ValueCheck/pkg/logger"
)

// Source is one named quote provider in the chain.
type Source struct {
	Name     string
	Provider repository.QuoteProvider
}

// Chain asks each source in order and returns the first quote with a price.
type Chain struct {
	sources []Source
	metrics repository.Metrics
	logger  *xlogger.Logger
}

func NewChain(metrics repository.Metrics, logger *xlogger.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, metrics: metrics, logger: logger}
}

// Quote returns a joined error only when no source produced a price.
// A quote without a price is kept and returned when nothing better exists.
func (c *Chain) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	var (
		errs     []error
		fallback *models.Quote
	)
	for _, s := range c.sources {
		q, err := s.Provider.Quote(ctx, symbol)
		if err != nil {
			c.metrics.RecordUpstreamError(s.Name)
			c.logger.Debug("quote source failed",
				xlogger.String("source", s.Name),
				xlogger.String("symbol", symbol),
				xlogger.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if q == nil {
			continue
		}
		if q.Price.Valid {
			if fallback != nil {
				mergeMissing(q, fallback)
			}
			return q, nil
		}
		if fallback == nil {
			fallback = q
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("quote %s: no source returned data", symbol)
	}
	return nil, fmt.Errorf("quote %s: %w", symbol, errors.Join(errs...))
}

// mergeMissing copies fields q lacks from an earlier partial quote.
func mergeMissing(q, from *models.Quote) {
	if !q.MarketCap.Valid {
		q.MarketCap = from.MarketCap
	}
	if !q.SharesOutstanding.Valid {
		q.SharesOutstanding = from.SharesOutstanding
	}
	if q.Name == "" {
		q.Name = from.Name
	}
}
