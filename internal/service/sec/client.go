package sec

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/services/facts"
	xhttp "ValueCheck/pkg/http"
	"ValueCheck/pkg/util"

	"golang.org/x/time/rate"
)

const (
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
	DefaultBaseURL    = "https://data.sec.gov"
	// SEC fair-access policy allows 10 requests per second per client.
	DefaultRateLimit = 10
)

// Taxonomies merged into a FactSet, in precedence order.
var Taxonomies = []string{"dei", "us-gaap", "ifrs-full"}

// Client talks to EDGAR. Every request waits on a shared limiter.
type Client struct {
	http       *xhttp.Client
	limiter    *rate.Limiter
	tickersURL string
	baseURL    string
}

type Option func(*clientConfig)

type clientConfig struct {
	tickersURL string
	baseURL    string
	rps        float64
	timeout    time.Duration
}

func WithTickersURL(u string) Option { return func(c *clientConfig) { c.tickersURL = u } }

func WithBaseURL(u string) Option { return func(c *clientConfig) { c.baseURL = strings.TrimRight(u, "/") } }

func WithRateLimit(rps float64) Option { return func(c *clientConfig) { c.rps = rps } }

func WithTimeout(d time.Duration) Option { return func(c *clientConfig) { c.timeout = d } }

// New creates a client identifying itself with userAgent, which EDGAR requires.
func New(userAgent string, opts ...Option) *Client {
	cfg := &clientConfig{
		tickersURL: DefaultTickersURL,
		baseURL:    DefaultBaseURL,
		rps:        DefaultRateLimit,
		timeout:    20 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limit := rate.Inf
	if cfg.rps > 0 {
		limit = rate.Limit(cfg.rps)
	}
	return &Client{
		http:       xhttp.NewClient(xhttp.WithTimeout(cfg.timeout), xhttp.WithUserAgent(userAgent)),
		limiter:    rate.NewLimiter(limit, 1),
		tickersURL: cfg.tickersURL,
		baseURL:    cfg.baseURL,
	}
}

func (c *Client) get(ctx context.Context, url string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.http.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: url}, dest)
}

type tickerRow struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Tickers downloads the full ticker to CIK mapping in SEC rank order. The
// document is keyed by rank ("0", "1", ...); unranked keys sort last.
func (c *Client) Tickers(ctx context.Context) ([]models.Company, error) {
	var rows map[string]tickerRow
	if err := c.get(ctx, c.tickersURL, &rows); err != nil {
		return nil, fmt.Errorf("sec tickers: %w", err)
	}

	type ranked struct {
		rank    int
		company models.Company
	}
	list := make([]ranked, 0, len(rows))
	for key, r := range rows {
		if r.Ticker == "" || r.CIK == 0 {
			continue
		}
		rank, err := strconv.Atoi(key)
		if err != nil || rank < 0 {
			rank = math.MaxInt
		}
		list = append(list, ranked{rank: rank, company: models.Company{
			Ticker: util.NormalizeTicker(r.Ticker),
			CIK:    strconv.FormatInt(r.CIK, 10),
			Title:  r.Title,
		}})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].rank != list[j].rank {
			return list[i].rank < list[j].rank
		}
		return list[i].company.Ticker < list[j].company.Ticker
	})

	out := make([]models.Company, len(list))
	for i, r := range list {
		out[i] = r.company
	}
	return out, nil
}

type concept struct {
	Units map[string][]models.Fact `json:"units"`
}

type companyFacts struct {
	EntityName string                        `json:"entityName"`
	Facts      map[string]map[string]concept `json:"facts"`
}

// CompanyFacts downloads every XBRL fact the company has filed. A missing
// company is reported as models.ErrNoFacts.
func (c *Client) CompanyFacts(ctx context.Context, cik string) (*models.FactSet, error) {
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, util.PadCIK(cik))

	var doc companyFacts
	if err := c.get(ctx, url, &doc); err != nil {
		if xhttp.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("sec companyfacts %s: %w", cik, models.ErrNoFacts)
		}
		return nil, fmt.Errorf("sec companyfacts %s: %w", cik, err)
	}
	return toFactSet(doc), nil
}

func toFactSet(doc companyFacts) *models.FactSet {
	indexes := make([]map[string]models.ConceptUnits, 0, len(Taxonomies))
	for _, tax := range Taxonomies {
		concepts, ok := doc.Facts[tax]
		if !ok {
			continue
		}
		idx := make(map[string]models.ConceptUnits, len(concepts))
		for name, cpt := range concepts {
			units := make(models.ConceptUnits, len(cpt.Units))
			for unit, items := range cpt.Units {
				for i := range items {
					items[i].Tag = name
					items[i].Unit = unit
				}
				units[unit] = items
			}
			idx[name] = units
		}
		indexes = append(indexes, idx)
	}
	return &models.FactSet{
		EntityName: doc.EntityName,
		Concepts:   facts.MergeTaxonomies(indexes...),
	}
}

// Submission is the subset of the submissions document the service reads.
type Submission struct {
	Name           string   `json:"name"`
	SICDescription string   `json:"sicDescription"`
	Tickers        []string `json:"tickers"`
	FiscalYearEnd  string   `json:"fiscalYearEnd"`
}

// Submission downloads the filer profile.
func (c *Client) Submission(ctx context.Context, cik string) (*Submission, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, util.PadCIK(cik))

	var s Submission
	if err := c.get(ctx, url, &s); err != nil {
		return nil, fmt.Errorf("sec submissions %s: %w", cik, err)
	}
	return &s, nil
}

// IsNotFound reports whether err is an EDGAR 404.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNoFacts) || xhttp.IsStatus(err, http.StatusNotFound)
}
