package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/pkg/config"
	xhttp "ValueCheck/pkg/http"
	applogger "ValueCheck/pkg/logger"
)

const pruneSpec = "@hourly"

// TrendingRefresher rebuilds the trending payload.
type TrendingRefresher interface {
	Refresh(ctx context.Context) (*models.TrendingPayload, error)
}

// Pruner removes expired rows from a persistent store.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	logger   *applogger.Logger
	http     *xhttp.Server
	trending TrendingRefresher
	pruner   Pruner
	closers  []namedCloser
}

// Option configures App.
type Option func(*App)

// WithPruner schedules hourly pruning of p.
func WithPruner(p Pruner) Option {
	return func(a *App) { a.pruner = p }
}

// WithCloser registers c to be closed on shutdown. Closers run in reverse
// registration order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, httpServer *xhttp.Server, trending TrendingRefresher, opts ...Option) *App {
	a := &App{
		cfg:      cfg,
		logger:   logger,
		http:     httpServer,
		trending: trending,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	loc, err := time.LoadLocation(a.cfg.Trending.Timezone)
	if err != nil {
		return fmt.Errorf("trending timezone: %w", err)
	}

	sched := NewScheduler(loc, a.logger)
	if err := sched.Add("trending", a.cfg.Trending.RefreshCron, a.refreshTrending); err != nil {
		return err
	}
	if a.pruner != nil {
		if err := sched.Add("store_prune", pruneSpec, a.prune); err != nil {
			return err
		}
	}

	// warm the trending entry so the first request is served from cache
	sched.RunNow("trending", a.refreshTrending)

	if err := a.http.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	sched.Start()

	a.logger.Info("valuecheck started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("store", a.cfg.Store.Type),
		applogger.String("facts", a.cfg.Facts.Provider),
	)

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown(sched)
}

func (a *App) refreshTrending(ctx context.Context) error {
	p, err := a.trending.Refresh(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("trending refreshed", applogger.Int("tickers", len(p.Tickers)))
	return nil
}

func (a *App) prune(ctx context.Context) error {
	n, err := a.pruner.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune store: %w", err)
	}
	if n > 0 {
		a.logger.Info("expired entries pruned", applogger.Int64("rows", n))
	}
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(sched *Scheduler) error {
	a.logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.http.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if err := sched.Stop(ctx); err != nil {
		a.logger.Warn("scheduler stop error", applogger.Error(err))
		errs = append(errs, err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.logger.Warn(nc.name+" close error", applogger.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", nc.name, err))
		}
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}
