package quota

import (
	"context"
	"errors"
	"slices"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/pkg/cache"
	"ValueCheck/pkg/util"
)

const (
	DefaultCap = 25
	usageTTL   = 48 * time.Hour
)

// Usage is the per-day document listing tickers computed for the first time.
type Usage struct {
	Count   int      `json:"count"`
	Tickers []string `json:"tickers"`
}

// Outcome of a Charge call; used as the metric label.
const (
	OutcomeKnown    = "known"
	OutcomeAdmitted = "admitted"
	OutcomeDenied   = "denied"
	OutcomeDisabled = "disabled"
)

// Gate limits how many distinct tickers may be computed per UTC day.
type Gate struct {
	store cache.Store
	limit int
	now   func() time.Time
}

// NewGate builds a gate admitting limit new tickers per day. A limit <= 0
// disables the gate.
func NewGate(store cache.Store, limit int, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{store: store, limit: limit, now: now}
}

// Key returns the usage document key for t's UTC day.
func Key(t time.Time) string {
	return cache.GenerateKey("usage", util.UTCDay(t))
}

// Charge admits ticker for today. It returns models.ErrQuotaExceeded when a
// ticker not yet seen today would push the count past the cap.
func (g *Gate) Charge(ctx context.Context, ticker string) (string, error) {
	if g.limit <= 0 {
		return OutcomeDisabled, nil
	}

	outcome := OutcomeDenied
	err := cache.UpdateJSON(ctx, g.store, Key(g.now()), usageTTL, func(u Usage, _ bool) (Usage, error) {
		switch {
		case slices.Contains(u.Tickers, ticker):
			outcome = OutcomeKnown
		case u.Count < g.limit:
			u.Count++
			u.Tickers = append(u.Tickers, ticker)
			outcome = OutcomeAdmitted
		default:
			outcome = OutcomeDenied
			return u, models.ErrQuotaExceeded
		}
		return u, nil
	})
	return outcome, err
}

// Today returns the current usage document.
func (g *Gate) Today(ctx context.Context) (Usage, error) {
	u, err := cache.GetJSON[Usage](ctx, g.store, Key(g.now()))
	if errors.Is(err, cache.ErrCacheMiss) {
		return Usage{}, nil
	}
	return u, err
}
