package fmp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/services/facts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/stable/quote", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.URL.Query().Get("apikey"))
		if r.URL.Query().Get("symbol") != "AAPL" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","name":"Apple Inc.","price":227.5,"marketCap":3.4e12}]`))
	})
	mux.HandleFunc("/stable/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "AAPL" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","companyName":"Apple Inc.","cik":"0000320193","industry":"Consumer Electronics","currency":"USD"}]`))
	})
	mux.HandleFunc("/stable/income-statement", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "annual", r.URL.Query().Get("period"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"date":"2024-09-28","symbol":"AAPL","reportedCurrency":"USD","cik":"0000320193","filingDate":"2024-11-01","fiscalYear":"2024","period":"FY","revenue":391035000000,"netIncome":93736000000,"eps":6.11,"grossProfitRatio":0.46,"weightedAverageShsOut":15343783000},
			{"date":"2023-09-30","symbol":"AAPL","reportedCurrency":"USD","filingDate":"2023-11-03","fiscalYear":"2023","period":"FY","revenue":383285000000,"netIncome":96995000000}
		]`))
	})
	mux.HandleFunc("/stable/balance-sheet-statement", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"2024-09-28","reportedCurrency":"USD","fiscalYear":"2024","period":"FY","totalAssets":364980000000}]`))
	})
	mux.HandleFunc("/stable/cash-flow-statement", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	return httptest.NewServer(mux)
}

func TestQuote(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New("key", time.Second, WithBaseURL(srv.URL))

	q, err := c.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 227.5, q.Price.Float64)
	assert.True(t, q.MarketCap.Valid)
	assert.False(t, q.SharesOutstanding.Valid)
	assert.Equal(t, "fmp", q.Source)

	q, err = c.Quote(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestNoAPIKey(t *testing.T) {
	c := New("", time.Second)
	assert.False(t, c.Enabled())
	_, err := c.Quote(context.Background(), "AAPL")
	assert.True(t, errors.Is(err, ErrNoAPIKey))
}

func TestStatementsBecomeFacts(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	c := New("key", time.Second, WithBaseURL(srv.URL), WithLimit(5))

	fs, err := NewFactsProvider(c).CompanyFacts(context.Background(), models.Company{Ticker: "AAPL"}, models.PeriodAnnual)
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", fs.EntityName)
	assert.Equal(t, "Consumer Electronics", fs.Industry)

	assert.NotContains(t, fs.Concepts, "eps")
	assert.NotContains(t, fs.Concepts, "grossProfitRatio")
	assert.NotContains(t, fs.Concepts, "cik")
	assert.Contains(t, fs.Concepts["weightedAverageShsOut"], "shares")

	rev := facts.Select(fs, facts.Revenue, models.PeriodAnnual)
	require.Len(t, rev.Facts, 2)
	assert.Equal(t, "revenue", rev.Tag)
	assert.Equal(t, 2024, rev.Facts[0].FiscalYear)
	assert.Equal(t, "10-K", rev.Facts[0].Form)
	assert.Equal(t, 391035000000.0, rev.Facts[0].Value)

	assets := facts.Select(fs, facts.Assets, models.PeriodAnnual)
	assert.Equal(t, 364980000000.0, assets.Latest().Float64)
}

func TestRegistry(t *testing.T) {
	srv := newServer(t)
	defer srv.Close()
	r := NewRegistry(New("key", time.Second, WithBaseURL(srv.URL)))

	got, err := r.Lookup(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.Company{Ticker: "AAPL", CIK: "0000320193", Title: "Apple Inc."}, got)

	_, err = r.Lookup(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrTickerNotFound)
}

// periodServer answers each statement endpoint by the requested period.
func periodServer(t *testing.T) *httptest.Server {
	rows := map[string]map[string]string{
		"income-statement": {
			"annual": `[
				{"date":"2024-09-28","reportedCurrency":"USD","fiscalYear":"2024","period":"FY","revenue":1000,"netIncome":120},
				{"date":"2023-09-30","reportedCurrency":"USD","fiscalYear":"2023","period":"FY","revenue":900,"netIncome":100}
			]`,
			"quarter": `[{"date":"2024-12-28","reportedCurrency":"USD","fiscalYear":"2025","period":"Q1","revenue":300,"netIncome":40}]`,
		},
		"balance-sheet-statement": {
			"annual":  `[{"date":"2024-09-28","reportedCurrency":"USD","fiscalYear":"2024","period":"FY","totalAssets":2000}]`,
			"quarter": `[{"date":"2024-12-28","reportedCurrency":"USD","fiscalYear":"2025","period":"Q1","totalAssets":2100}]`,
		},
		"cash-flow-statement": {
			"annual":  `[{"date":"2024-09-28","reportedCurrency":"USD","fiscalYear":"2024","period":"FY","operatingCashFlow":150,"capitalExpenditure":-50}]`,
			"quarter": `[]`,
		},
	}
	mux := http.NewServeMux()
	for path, byPeriod := range rows {
		byPeriod := byPeriod
		mux.HandleFunc("/stable/"+path, func(w http.ResponseWriter, r *http.Request) {
			body, ok := byPeriod[r.URL.Query().Get("period")]
			assert.True(t, ok, "unexpected period %q", r.URL.Query().Get("period"))
			_, _ = w.Write([]byte(body))
		})
	}
	mux.HandleFunc("/stable/profile", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	return httptest.NewServer(mux)
}

func TestQuarterlyFactsCarryAnnualStatements(t *testing.T) {
	srv := periodServer(t)
	defer srv.Close()
	p := NewFactsProvider(New("key", time.Second, WithBaseURL(srv.URL)))

	fs, err := p.CompanyFacts(context.Background(), models.Company{Ticker: "EXM", Title: "Example"}, models.PeriodQuarterly)
	require.NoError(t, err)

	quarterly := facts.Select(fs, facts.Revenue, models.PeriodQuarterly)
	require.Len(t, quarterly.Facts, 1)
	assert.Equal(t, 300.0, quarterly.Facts[0].Value)
	assert.Equal(t, 2100.0, facts.Select(fs, facts.Assets, models.PeriodQuarterly).Latest().Float64)

	annual := facts.Select(fs, facts.NetIncome, models.PeriodAnnual)
	require.Len(t, annual.Facts, 2)
	assert.Equal(t, 120.0, annual.Facts[0].Value)
	assert.Equal(t, 150.0, facts.Select(fs, facts.OperatingCashFlow, models.PeriodAnnual).Latest().Float64)
	assert.Equal(t, 2000.0, facts.Select(fs, facts.Assets, models.PeriodAnnual).Latest().Float64)
}

func TestAnnualFactsSkipQuarterlyStatements(t *testing.T) {
	srv := periodServer(t)
	defer srv.Close()
	p := NewFactsProvider(New("key", time.Second, WithBaseURL(srv.URL)))

	fs, err := p.CompanyFacts(context.Background(), models.Company{Ticker: "EXM"}, models.PeriodAnnual)
	require.NoError(t, err)
	assert.Empty(t, facts.Select(fs, facts.Revenue, models.PeriodQuarterly).Facts)
	assert.Len(t, facts.Select(fs, facts.Revenue, models.PeriodAnnual).Facts, 2)
}
