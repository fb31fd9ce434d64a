package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/v8/finance/chart/BRK-B":
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"BRK-B","currency":"USD","longName":"Berkshire Hathaway Inc.","regularMarketPrice":455.1}}],"error":null}}`))
		case "/v8/finance/chart/EURUSD=X":
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"EURUSD=X","currency":"USD","regularMarketPrice":1.085}}],"error":null}}`))
		case "/v8/finance/chart/XXXUSD=X":
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"XXXUSD=X","currency":"USD"}}],"error":null}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
		}
	}))
}

func TestQuote(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New(srv.URL, time.Second)

	q, err := c.Quote(context.Background(), "BRK.B")
	require.NoError(t, err)
	assert.Equal(t, 455.1, q.Price.Float64)
	assert.Equal(t, "USD", q.Currency)
	assert.Equal(t, "Berkshire Hathaway Inc.", q.Name)
	assert.False(t, q.MarketCap.Valid)

	_, err = c.Quote(context.Background(), "NOPE")
	assert.Error(t, err)
}

func TestRateToUSD(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New(srv.URL, time.Second)

	rate, err := c.RateToUSD(context.Background(), "eur")
	require.NoError(t, err)
	assert.Equal(t, 1.085, rate)

	rate, err = c.RateToUSD(context.Background(), "USD")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	_, err = c.RateToUSD(context.Background(), "XXX")
	assert.Error(t, err)
}
