package sec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ValueCheck/internal/domain/models"
	xlogger "ValueCheck/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factsDoc = `{
  "cik": 320193,
  "entityName": "Apple Inc.",
  "facts": {
    "dei": {
      "EntityCommonStockSharesOutstanding": {"units": {"shares": [
        {"end": "2024-10-18", "val": 15115823000, "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}
      ]}}
    },
    "us-gaap": {
      "NetIncomeLoss": {"units": {"USD": [
        {"start": "2023-10-01", "end": "2024-09-28", "val": 93736000000, "fy": 2024, "fp": "FY", "form": "10-K", "filed": "2024-11-01"}
      ]}},
      "EntityCommonStockSharesOutstanding": {"units": {"shares": [
        {"end": "2000-01-01", "val": 1, "fy": 2000, "fp": "FY", "form": "10-K", "filed": "2000-01-01"}
      ]}}
    },
    "ifrs-full": {
      "ProfitLoss": {"units": {"EUR": [
        {"end": "2024-12-31", "val": 5, "fy": 2024, "fp": "FY", "form": "20-F", "filed": "2025-03-01"}
      ]}}
    }
  }
}`

func newServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."},"1":{"cik_str":1067983,"ticker":"brk-b","title":"BERKSHIRE HATHAWAY INC"},"2":{"cik_str":0,"ticker":"BAD","title":""}}`))
	})
	mux.HandleFunc("/api/xbrl/companyfacts/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "ValueCheck/test (ops@example.com)", r.Header.Get("User-Agent"))
		if r.URL.Path != "/api/xbrl/companyfacts/CIK0000320193.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(factsDoc))
	})
	mux.HandleFunc("/submissions/CIK0000320193.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Apple Inc.","sicDescription":"Electronic Computers","tickers":["AAPL"]}`))
	})
	return httptest.NewServer(mux)
}

func newClient(srv *httptest.Server) *Client {
	return New("ValueCheck/test (ops@example.com)",
		WithBaseURL(srv.URL),
		WithTickersURL(srv.URL+"/files/company_tickers.json"),
		WithRateLimit(0),
	)
}

func TestTickers(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	defer srv.Close()

	got, err := newClient(srv).Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Company{
		{Ticker: "AAPL", CIK: "320193", Title: "Apple Inc."},
		{Ticker: "BRK-B", CIK: "1067983", Title: "BERKSHIRE HATHAWAY INC"},
	}, got)
}

func TestTickersFollowRank(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"10":{"cik_str":3,"ticker":"AAA","title":"Third"},
			"2":{"cik_str":2,"ticker":"ZZZ","title":"Second"},
			"x":{"cik_str":4,"ticker":"BBB","title":"Unranked"},
			"0":{"cik_str":1,"ticker":"MMM","title":"First"}
		}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newClient(srv).Tickers(context.Background())
	require.NoError(t, err)
	var order []string
	for _, c := range got {
		order = append(order, c.Ticker)
	}
	assert.Equal(t, []string{"MMM", "ZZZ", "AAA", "BBB"}, order)
}

func TestCompanyFactsMergesTaxonomies(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	defer srv.Close()

	fs, err := newClient(srv).CompanyFacts(context.Background(), "320193")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", fs.EntityName)

	shares := fs.Concepts["EntityCommonStockSharesOutstanding"]["shares"]
	require.Len(t, shares, 1)
	assert.Equal(t, 15115823000.0, shares[0].Value, "dei wins over us-gaap")
	assert.Equal(t, "EntityCommonStockSharesOutstanding", shares[0].Tag)

	ni := fs.Concepts["NetIncomeLoss"]["USD"]
	require.Len(t, ni, 1)
	assert.Equal(t, "USD", ni[0].Unit)
	assert.Equal(t, "2023-10-01", ni[0].PeriodStart)

	assert.Contains(t, fs.Concepts, "ProfitLoss")
}

func TestCompanyFactsNotFound(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	defer srv.Close()

	_, err := newClient(srv).CompanyFacts(context.Background(), "42")
	assert.True(t, errors.Is(err, models.ErrNoFacts))
	assert.True(t, IsNotFound(err))
}

func TestFactsProviderAddsIndustry(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	defer srv.Close()

	p := NewFactsProvider(newClient(srv), xlogger.Nop(), true)
	fs, err := p.CompanyFacts(context.Background(), models.Company{Ticker: "AAPL", CIK: "320193"}, models.PeriodAnnual)
	require.NoError(t, err)
	assert.Equal(t, "Electronic Computers", fs.Industry)
	assert.EqualValues(t, 1, hits.Load())
}

func TestLimiterHonoursContext(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, &hits)
	defer srv.Close()

	c := New("ValueCheck/test (ops@example.com)", WithBaseURL(srv.URL), WithRateLimit(0.001))
	ctx := context.Background()
	_, _ = c.CompanyFacts(ctx, "320193")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := c.CompanyFacts(cancelled, "320193")
	assert.Error(t, err)
	assert.EqualValues(t, 1, hits.Load())
}
