package quotes

import (
	"context"
	"errors"
	"testing"

	"ValueCheck/internal/domain/models"
	xlogger "ValueCheck/pkg/logger"
	"ValueCheck/pkg/metrics"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	q     *models.Quote
	err   error
	calls int
}

func (s *stubProvider) Quote(context.Context, string) (*models.Quote, error) {
	s.calls++
	return s.q, s.err
}

func TestChainFirstPriceWins(t *testing.T) {
	first := &stubProvider{err: errors.New("fmp down")}
	second := &stubProvider{q: &models.Quote{Price: null.FloatFrom(10), Source: "yahoo"}}
	third := &stubProvider{q: &models.Quote{Price: null.FloatFrom(99)}}

	c := NewChain(metrics.Nop{}, xlogger.Nop(),
		Source{"fmp", first}, Source{"yahoo", second}, Source{"other", third})
	q, err := c.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", q.Source)
	assert.Equal(t, 0, third.calls)
}

func TestChainMergesPartialQuote(t *testing.T) {
	partial := &stubProvider{q: &models.Quote{MarketCap: null.FloatFrom(5e9), Name: "Acme"}}
	priced := &stubProvider{q: &models.Quote{Price: null.FloatFrom(12)}}

	q, err := NewChain(metrics.Nop{}, xlogger.Nop(), Source{"a", partial}, Source{"b", priced}).
		Quote(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 12.0, q.Price.Float64)
	assert.Equal(t, 5e9, q.MarketCap.Float64)
	assert.Equal(t, "Acme", q.Name)
}

func TestChainAllFail(t *testing.T) {
	e1, e2 := errors.New("one"), errors.New("two")
	c := NewChain(metrics.Nop{}, xlogger.Nop(),
		Source{"a", &stubProvider{err: e1}}, Source{"b", &stubProvider{err: e2}})
	_, err := c.Quote(context.Background(), "X")
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)

	_, err = NewChain(metrics.Nop{}, xlogger.Nop(), Source{"a", &stubProvider{}}).Quote(context.Background(), "X")
	assert.Error(t, err)
}
