package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ValueCheck/internal/domain/models"
	drepo "ValueCheck/internal/domain/repository"
	tcache "ValueCheck/internal/service/cache"
	xlogger "ValueCheck/pkg/logger"
	"ValueCheck/pkg/util"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Where a StockResult came from; mirrored in the X-Cache response header.
const (
	SourceFresh = "fresh"
	SourceLive  = "live"
	SourceStale = "stale"
)

// computeTimeout bounds a shared computation once it no longer follows any
// single caller's context.
const computeTimeout = time.Minute

// QuotaGate admits tickers computed for the first time today.
type QuotaGate interface {
	Charge(ctx context.Context, ticker string) (string, error)
}

type StockResult struct {
	Record *models.CompanyRecord
	Source string
}

// StockAssembler serves company records from cache or computes them live.
type StockAssembler struct {
	cache     *tcache.Tiered
	quota     QuotaGate
	registry  drepo.TickerRegistry
	facts     drepo.FactsProvider
	quotes    drepo.QuoteProvider
	builder   *RecordBuilder
	publisher drepo.RecordPublisher
	snapshots drepo.SnapshotStore
	metrics   drepo.Metrics
	logger    *xlogger.Logger
	now       func() time.Time
	timeout   time.Duration

	flights singleflight.Group
}

// NewStockAssembler creates a new StockAssembler instance.
func NewStockAssembler(
	cache *tcache.Tiered,
	quota QuotaGate,
	registry drepo.TickerRegistry,
	facts drepo.FactsProvider,
	quotes drepo.QuoteProvider,
	builder *RecordBuilder,
	publisher drepo.RecordPublisher,
	snapshots drepo.SnapshotStore,
	metrics drepo.Metrics,
	logger *xlogger.Logger,
) *StockAssembler {
	return &StockAssembler{
		cache:     cache,
		quota:     quota,
		registry:  registry,
		facts:     facts,
		quotes:    quotes,
		builder:   builder,
		publisher: publisher,
		snapshots: snapshots,
		metrics:   metrics,
		logger:    logger.With(xlogger.String("component", "stock_assembler")),
		now:       time.Now,
		timeout:   computeTimeout,
	}
}

// Get returns the record for ticker.
//
// A fresh cache entry is served as is. Otherwise the quota is charged and the
// record is computed; when the computation fails a stale entry is served in
// its place. Quota denials never fall back to stale data.
func (a *StockAssembler) Get(ctx context.Context, ticker string, period models.Period) (*StockResult, error) {
	t := util.NormalizeTicker(ticker)
	if t == "" {
		return nil, models.ErrTickerNotFound
	}
	key := tcache.StockKey(t, string(period))

	var cached models.CompanyRecord
	state, _, err := a.cache.Get(ctx, key, &cached)
	if err != nil {
		a.logger.Warn("stock cache read failed", xlogger.String("key", key), xlogger.Error(err))
		state = tcache.Miss
	}
	a.metrics.RecordCacheLookup(state.String())
	if state == tcache.Fresh {
		return &StockResult{Record: &cached, Source: SourceFresh}, nil
	}

	// The computation outlives any one caller; each caller stops waiting on its own context.
	ch := a.flights.DoChan(key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		return a.compute(cctx, t, period, key)
	})
	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	err = r.Err
	if err == nil {
		if r.Shared {
			a.logger.Debug("stock computation shared", xlogger.String("ticker", t))
		}
		return &StockResult{Record: r.Val.(*models.CompanyRecord), Source: SourceLive}, nil
	}

	if errors.Is(err, models.ErrQuotaExceeded) || state != tcache.Stale {
		return nil, err
	}
	a.logger.Warn("serving stale record",
		xlogger.String("ticker", t),
		xlogger.String("period", string(period)),
		xlogger.Error(err),
	)
	return &StockResult{Record: &cached, Source: SourceStale}, nil
}

func (a *StockAssembler) compute(ctx context.Context, ticker string, period models.Period, key string) (*models.CompanyRecord, error) {
	start := a.now()

	outcome, err := a.quota.Charge(ctx, ticker)
	a.metrics.RecordQuotaDecision(outcome)
	if err != nil {
		if errors.Is(err, models.ErrQuotaExceeded) {
			a.logger.Info("daily ticker cap reached", xlogger.String("ticker", ticker))
			return nil, err
		}
		return nil, fmt.Errorf("charge quota: %w", err)
	}

	company, err := a.resolve(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var (
		factSet *models.FactSet
		quote   *models.Quote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fs, err := a.facts.CompanyFacts(gctx, company, period)
		if err != nil {
			return fmt.Errorf("fetch facts for %s: %w", ticker, err)
		}
		factSet = fs
		return nil
	})
	g.Go(func() error {
		q, err := a.quotes.Quote(gctx, ticker)
		if err != nil {
			a.metrics.RecordUpstreamError("quote")
			a.logger.Warn("quote unavailable, continuing without price",
				xlogger.String("ticker", ticker),
				xlogger.Error(err),
			)
			return nil
		}
		quote = q
		return nil
	})
	if err := g.Wait(); err != nil {
		a.metrics.RecordUpstreamError("facts")
		return nil, err
	}

	rec := a.builder.Build(ctx, BuildInput{
		Company: company,
		Period:  period,
		Facts:   factSet,
		Quote:   quote,
		Now:     a.now(),
	})
	rec.Ticker = ticker

	if _, err := a.cache.Put(ctx, key, rec); err != nil {
		a.logger.Warn("stock cache write failed", xlogger.String("key", key), xlogger.Error(err))
	}
	a.emit(ctx, rec)

	took := a.now().Sub(start)
	a.metrics.RecordLatency("stock_compute", took.Seconds())
	a.logger.Info("stock computed",
		xlogger.String("ticker", ticker),
		xlogger.String("period", string(period)),
		xlogger.Bool("priced", rec.Price.Valid),
		xlogger.Duration("took_ms", took),
	)
	return rec, nil
}

// resolve looks the ticker up, retrying once with the "." / "-" variant.
func (a *StockAssembler) resolve(ctx context.Context, ticker string) (models.Company, error) {
	company, err := a.registry.Lookup(ctx, ticker)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, models.ErrTickerNotFound) {
		a.metrics.RecordUpstreamError("registry")
		return models.Company{}, fmt.Errorf("resolve %s: %w", ticker, err)
	}
	variant := util.TickerVariant(ticker)
	if variant == "" {
		return models.Company{}, fmt.Errorf("resolve %s: %w", ticker, err)
	}
	company, err = a.registry.Lookup(ctx, variant)
	if err != nil {
		return models.Company{}, fmt.Errorf("resolve %s (as %s): %w", ticker, variant, err)
	}
	return company, nil
}

// emit publishes and archives a computed record. Failures are logged only.
func (a *StockAssembler) emit(ctx context.Context, rec *models.CompanyRecord) {
	if err := a.publisher.PublishRecord(ctx, rec); err != nil {
		a.metrics.RecordUpstreamError("kafka")
		a.logger.Warn("publish record failed", xlogger.String("ticker", rec.Ticker), xlogger.Error(err))
	}
	if err := a.snapshots.SaveSnapshot(ctx, models.SnapshotFromRecord(rec, a.now())); err != nil {
		a.metrics.RecordUpstreamError("clickhouse")
		a.logger.Warn("archive snapshot failed", xlogger.String("ticker", rec.Ticker), xlogger.Error(err))
	}
}

// History returns archived valuation snapshots, newest first.
func (a *StockAssembler) History(ctx context.Context, ticker string, period models.Period, limit int) (*models.HistoryResponse, error) {
	t := util.NormalizeTicker(ticker)
	snaps, err := a.snapshots.History(ctx, t, period, limit)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", t, err)
	}
	if snaps == nil {
		snaps = []models.ValuationSnapshot{}
	}
	return &models.HistoryResponse{Ticker: t, Period: period, Snapshots: snaps}, nil
}
