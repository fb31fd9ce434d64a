package fx

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

type stubRates struct {
	rate  float64
	err   error
	calls int
}

func (s *stubRates) RateToUSD(context.Context, string) (float64, error) {
	s.calls++
	return s.rate, s.err
}

type countingMetrics struct {
	metrics.Nop
	fallbacks map[string]int
}

func (m *countingMetrics) RecordFXFallback(c string) { m.fallbacks[c]++ }

func setup(t *testing.T, rates *stubRates) (*Normalizer, *time.Time, *countingMetrics) {
	t.Helper()
	store := cache.NewMemoryStore(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	tiered := tcache.NewTiered(store, time.Hour, 7*24*time.Hour, tcache.WithClock(func() time.Time { return now }))
	m := &countingMetrics{fallbacks: map[string]int{}}
	return NewNormalizer(rates, tiered, m, xlogger.Nop()), &now, m
}

func TestRateIdentityAndNonCurrency(t *testing.T) {
	rates := &stubRates{rate: 2}
	n, _, _ := setup(t, rates)
	ctx := context.Background()

	assert.Equal(t, 100.0, n.ToUSD(ctx, 100, "USD"))
	assert.Equal(t, 100.0, n.ToUSD(ctx, 100, "shares"))
	assert.Equal(t, 100.0, n.ToUSD(ctx, 100, "pure"))
	assert.Equal(t, 0, rates.calls)
}

func TestRateCachedWhileFresh(t *testing.T) {
	rates := &stubRates{rate: 1.1}
	n, now, _ := setup(t, rates)
	ctx := context.Background()

	assert.InDelta(t, 110.0, n.ToUSD(ctx, 100, "EUR"), 1e-9)
	*now = now.Add(30 * time.Minute)
	assert.InDelta(t, 110.0, n.ToUSD(ctx, 100, "EUR"), 1e-9)
	assert.Equal(t, 1, rates.calls)

	*now = now.Add(time.Hour)
	rates.rate = 1.2
	assert.InDelta(t, 120.0, n.ToUSD(ctx, 100, "EUR"), 1e-9)
	assert.Equal(t, 2, rates.calls)
}

func TestRateFallsBackToStaleThenOne(t *testing.T) {
	rates := &stubRates{rate: 1.1}
	n, now, m := setup(t, rates)
	ctx := context.Background()

	n.Rate(ctx, "EUR")
	*now = now.Add(2 * time.Hour)
	rates.err = errors.New("yahoo down")
	assert.Equal(t, 1.1, n.Rate(ctx, "EUR"))

	assert.Equal(t, 1.0, n.Rate(ctx, "JPY"))
	assert.Equal(t, 1, m.fallbacks["EUR"])
	assert.Equal(t, 1, m.fallbacks["JPY"])
}

func TestNormalizeSeries(t *testing.T) {
	n, _, _ := setup(t, &stubRates{rate: 0.5})
	in := models.Series{Tag: "Revenue", Unit: "EUR", ReportedUnit: "EUR", Facts: []models.Fact{
		{Value: 10, Unit: "EUR"}, {Value: 4, Unit: "EUR"},
	}}
	out := n.NormalizeSeries(context.Background(), in)

	require.Len(t, out.Facts, 2)
	assert.Equal(t, "USD", out.Unit)
	assert.Equal(t, "EUR", out.ReportedUnit)
	assert.Equal(t, []float64{5, 2}, out.Values())
	assert.Equal(t, 10.0, in.Facts[0].Value, "input untouched")

	usd := models.Series{Unit: "USD", Facts: []models.Fact{{Value: 3}}}
	assert.Equal(t, usd, n.NormalizeSeries(context.Background(), usd))
}
