package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ValueCheck/internal/domain/models"
	xhttp "ValueCheck/pkg/http"
	"ValueCheck/pkg/util"

	"github.com/guregu/null/v6"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	userAgent      = "Mozilla/5.0 (compatible; ValueCheck/1.0)"
)

var errNoPrice = errors.New("yahoo: no market price")

// Client reads the public chart endpoint, which needs no key.
type Client struct {
	http    *xhttp.Client
	baseURL string
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent(userAgent)),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta chartMeta `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	LongName           string   `json:"longName"`
	ShortName          string   `json:"shortName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
}

func (c *Client) chart(ctx context.Context, symbol string) (*chartMeta, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{"interval": {"1d"}, "range": {"1d"}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: empty result", symbol)
	}
	return &resp.Chart.Result[0].Meta, nil
}

// Quote returns price and currency. Market cap and share count are not
// available from the chart endpoint.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	meta, err := c.chart(ctx, util.QuoteSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	return &models.Quote{
		Symbol:   meta.Symbol,
		Name:     name,
		Price:    null.FloatFromPtr(meta.RegularMarketPrice),
		Currency: strings.ToUpper(meta.Currency),
		Source:   "yahoo",
	}, nil
}

// RateToUSD returns how many USD one unit of currency buys.
func (c *Client) RateToUSD(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	if currency == "USD" {
		return 1, nil
	}
	meta, err := c.chart(ctx, currency+"USD=X")
	if err != nil {
		return 0, fmt.Errorf("yahoo fx %s: %w", currency, err)
	}
	if meta.RegularMarketPrice == nil || *meta.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("yahoo fx %s: %w", currency, errNoPrice)
	}
	return *meta.RegularMarketPrice, nil
}
