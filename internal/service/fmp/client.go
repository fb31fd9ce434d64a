package fmp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ValueCheck/internal/domain/models"
	xhttp "ValueCheck/pkg/http"
	"ValueCheck/pkg/util"

	"github.com/guregu/null/v6"
)

const DefaultBaseURL = "https://financialmodelingprep.com"

// ErrNoAPIKey is returned by every call when the client has no key.
var ErrNoAPIKey = errors.New("fmp: api key not configured")

// Client reads the FMP "stable" REST API.
type Client struct {
	http    *xhttp.Client
	baseURL string
	apiKey  string
	limit   int
}

type Option func(*Client)

func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }

// WithLimit sets how many statement periods are requested.
func WithLimit(n int) Option { return func(c *Client) { c.limit = n } }

func New(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		limit:   10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.apiKey != "" }

func (c *Client) get(ctx context.Context, path string, params map[string]string, dest interface{}) error {
	if !c.Enabled() {
		return ErrNoAPIKey
	}
	q := map[string][]string{"apikey": {c.apiKey}}
	for k, v := range params {
		q[k] = []string{v}
	}
	return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/stable/" + path,
		QueryParams: q,
	}, dest)
}

type quoteRow struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	MarketCap         *float64 `json:"marketCap"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
}

// Quote returns the latest quote, or nil when FMP knows nothing of symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	var rows []quoteRow
	if err := c.get(ctx, "quote", map[string]string{"symbol": util.QuoteSymbol(symbol)}, &rows); err != nil {
		return nil, fmt.Errorf("fmp quote %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &models.Quote{
		Symbol:            r.Symbol,
		Name:              r.Name,
		Price:             null.FloatFromPtr(r.Price),
		MarketCap:         null.FloatFromPtr(r.MarketCap),
		SharesOutstanding: null.FloatFromPtr(r.SharesOutstanding),
		Currency:          "USD",
		Source:            "fmp",
	}, nil
}

// Profile is the company profile subset the service uses.
type Profile struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	CIK         string   `json:"cik"`
	Currency    string   `json:"currency"`
	Industry    string   `json:"industry"`
	Price       *float64 `json:"price"`
	MarketCap   *float64 `json:"marketCap"`
	MktCap      *float64 `json:"mktCap"`
}

// Profile returns nil when FMP has no profile for symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*Profile, error) {
	var rows []Profile
	if err := c.get(ctx, "profile", map[string]string{"symbol": util.QuoteSymbol(symbol)}, &rows); err != nil {
		return nil, fmt.Errorf("fmp profile %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

var statementPaths = []string{"income-statement", "balance-sheet-statement", "cash-flow-statement"}

// Statements downloads the three financial statements and flattens them into
// a FactSet with one concept per statement field.
func (c *Client) Statements(ctx context.Context, symbol string, period models.Period) (*models.FactSet, error) {
	fmpPeriod := "annual"
	if period == models.PeriodQuarterly {
		fmpPeriod = "quarter"
	}
	params := map[string]string{
		"symbol": util.QuoteSymbol(symbol),
		"period": fmpPeriod,
		"limit":  strconv.Itoa(c.limit),
	}

	concepts := make(map[string]models.ConceptUnits)
	for _, path := range statementPaths {
		var rows []map[string]interface{}
		if err := c.get(ctx, path, params, &rows); err != nil {
			return nil, fmt.Errorf("fmp %s %s: %w", path, symbol, err)
		}
		for _, row := range rows {
			addStatementRow(concepts, row, period)
		}
	}
	if len(concepts) == 0 {
		return nil, fmt.Errorf("fmp statements %s: %w", symbol, models.ErrNoFacts)
	}
	return &models.FactSet{Concepts: concepts}, nil
}

func addStatementRow(concepts map[string]models.ConceptUnits, row map[string]interface{}, period models.Period) {
	end, _ := row["date"].(string)
	currency, _ := row["reportedCurrency"].(string)
	if currency == "" {
		currency = "USD"
	}
	filed, _ := row["filingDate"].(string)
	if filed == "" {
		filed, _ = row["fillingDate"].(string)
	}

	form := "10-K"
	fp, _ := row["period"].(string)
	if period == models.PeriodQuarterly {
		form = "10-Q"
	} else {
		fp = "FY"
	}
	fy := fiscalYear(row, end)

	for field, raw := range row {
		v, ok := raw.(float64)
		if !ok || skipField(field) {
			continue
		}
		unit := currency
		if strings.Contains(field, "ShsOut") {
			unit = "shares"
		}
		if concepts[field] == nil {
			concepts[field] = models.ConceptUnits{}
		}
		concepts[field][unit] = append(concepts[field][unit], models.Fact{
			Tag:          field,
			Unit:         unit,
			Value:        v,
			FiscalYear:   fy,
			FiscalPeriod: fp,
			PeriodEnd:    end,
			Form:         form,
			Filed:        filed,
		})
	}
}

func fiscalYear(row map[string]interface{}, end string) int {
	for _, key := range []string{"fiscalYear", "calendarYear"} {
		switch v := row[key].(type) {
		case string:
			if n := util.ParseIntDefault(v, 0); n != 0 {
				return n
			}
		case float64:
			return int(v)
		}
	}
	if len(end) >= 4 {
		return util.ParseIntDefault(end[:4], 0)
	}
	return 0
}

// skipField drops identifiers, per-share figures and ratios.
func skipField(field string) bool {
	switch field {
	case "cik", "fiscalYear", "calendarYear":
		return true
	}
	lower := strings.ToLower(field)
	return strings.HasPrefix(lower, "eps") || strings.HasSuffix(lower, "ratio")
}
