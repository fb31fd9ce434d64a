package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ValueCheck/internal/domain/models"
	tcache "ValueCheck/internal/service/cache"
	"ValueCheck/pkg/cache"
	xlogger "ValueCheck/pkg/logger"
	"ValueCheck/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTickerSource struct {
	entries []models.Company
	err     error
	calls   int
}

func (s *fakeTickerSource) Tickers(context.Context) ([]models.Company, error) {
	s.calls++
	return s.entries, s.err
}

var sampleCompanies = []models.Company{
	{Ticker: "AAPL", CIK: "0000320193", Title: "Apple Inc."},
	{Ticker: "MSFT", CIK: "0000789019", Title: "MICROSOFT CORP"},
	{Ticker: "BRK-B", CIK: "0001067983", Title: "BERKSHIRE HATHAWAY INC"},
}

func newIndex(t *testing.T, src *fakeTickerSource) (*TickerIndex, *time.Time, *tcache.Tiered) {
	t.Helper()
	store := cache.NewMemoryStore(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tiered := tcache.NewTiered(store, 24*time.Hour, 7*24*time.Hour, tcache.WithClock(clock))
	ix := NewTickerIndex(src, tiered, 24*time.Hour, metrics.Nop{}, xlogger.Nop())
	ix.now = clock
	return ix, &now, tiered
}

func TestTickerIndexLookup(t *testing.T) {
	src := &fakeTickerSource{entries: sampleCompanies}
	ix, _, _ := newIndex(t, src)
	ctx := context.Background()

	c, err := ix.Lookup(ctx, "msft")
	require.NoError(t, err)
	assert.Equal(t, "0000789019", c.CIK)

	_, err = ix.Lookup(ctx, "BRK.B")
	assert.ErrorIs(t, err, models.ErrTickerNotFound)

	_, err = ix.Lookup(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "in-process copy reused while fresh")
}

func TestTickerIndexReloadsAfterFreshWindow(t *testing.T) {
	src := &fakeTickerSource{entries: sampleCompanies}
	ix, now, _ := newIndex(t, src)
	ctx := context.Background()

	_, err := ix.Entries(ctx)
	require.NoError(t, err)

	*now = now.Add(25 * time.Hour)
	src.entries = append(sampleCompanies[:1:1], models.Company{Ticker: "NVDA", CIK: "0001045810", Title: "NVIDIA CORP"})
	entries, err := ix.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Len(t, entries, 2)
}

func TestTickerIndexServesStaleWhenSourceFails(t *testing.T) {
	src := &fakeTickerSource{entries: sampleCompanies}
	first, now, tiered := newIndex(t, src)
	ctx := context.Background()
	_, err := first.Entries(ctx)
	require.NoError(t, err)

	// a new process sees only the shared cache
	second := NewTickerIndex(src, tiered, 24*time.Hour, metrics.Nop{}, xlogger.Nop())
	second.now = first.now
	*now = now.Add(3 * 24 * time.Hour)
	src.err = errors.New("sec down")

	c, err := second.Lookup(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", c.Title)

	*now = now.Add(8 * 24 * time.Hour)
	third := NewTickerIndex(src, tiered, 24*time.Hour, metrics.Nop{}, xlogger.Nop())
	third.now = first.now
	_, err = third.Entries(ctx)
	assert.Error(t, err)

	entries, err := second.Entries(ctx)
	require.NoError(t, err, "loaded copy outlives the cache")
	assert.Len(t, entries, 3)
}
