package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Solvency labels derived from the Altman Z-score.
const (
	SolvencySafe    = "Safe"
	SolvencyCaution = "Caution"
	SolvencyRisk    = "Risk"
	SolvencyUnknown = "Unknown"
)

// CompanyRecord is the computed per-ticker payload served by /stock.
type CompanyRecord struct {
	Ticker            string                       `json:"ticker"`
	Name              string                       `json:"name"`
	Industry          string                       `json:"industry,omitempty"`
	Period            Period                       `json:"period"`
	Price             null.Float                   `json:"price"`
	MarketCap         null.Float                   `json:"marketCap"`
	SharesOutstanding null.Float                   `json:"sharesOutstanding"`
	Currency          string                       `json:"currency"`
	ReportedCurrency  string                       `json:"reportedCurrency,omitempty"`
	LastUpdated       string                       `json:"lastUpdated"`
	Metrics           Metrics                      `json:"metrics"`
	Snapshots         Snapshots                    `json:"snapshots"`
	Valuation         Valuation                    `json:"valuation"`
	Provenance        map[string][]ProvenanceEntry `json:"provenance"`
}

type Metrics struct {
	GrossMargin             null.Float `json:"grossMargin"`
	SGAEfficiency           null.Float `json:"sgaEfficiency"`
	RDReliance              null.Float `json:"rdReliance"`
	NetMargin               null.Float `json:"netMargin"`
	ConsistentEarnings      int        `json:"consistentEarnings"`
	ConsistentEarningsYears int        `json:"consistentEarningsYears"`
	ConsistentEarningsPass  bool       `json:"consistentEarningsPass"`
	InterestCoverage        null.Float `json:"interestCoverage"`
	DebtToEquity            null.Float `json:"debtToEquity"`
	ROE                     null.Float `json:"roe"`
	CapexEfficiency         null.Float `json:"capexEfficiency"`
}

type Snapshots struct {
	ShareholderYield null.Float `json:"shareholderYield"`
	Solvency         string     `json:"solvency"`
	AltmanZ          null.Float `json:"altmanZ"`
}

type DCFRange struct {
	Low  null.Float `json:"low"`
	Base null.Float `json:"base"`
	High null.Float `json:"high"`
}

type Valuation struct {
	DCF           DCFRange   `json:"dcf"`
	Graham        null.Float `json:"graham"`
	Lynch         null.Float `json:"lynch"`
	ImpliedGrowth null.Float `json:"impliedGrowth"`
	Current       null.Float `json:"current"`
}

// ProvenanceEntry names the reported fact behind a metric input.
type ProvenanceEntry struct {
	Tag        string `json:"tag"`
	Unit       string `json:"unit"`
	FiscalYear int    `json:"fiscalYear"`
	PeriodEnd  string `json:"periodEnd"`
	Form       string `json:"form"`
}

// ValuationSnapshot is one archived valuation row.
type ValuationSnapshot struct {
	Ticker        string     `json:"ticker"`
	Period        Period     `json:"period"`
	CapturedAt    time.Time  `json:"capturedAt"`
	Price         null.Float `json:"price"`
	DCFBase       null.Float `json:"dcfBase"`
	Graham        null.Float `json:"graham"`
	Lynch         null.Float `json:"lynch"`
	ImpliedGrowth null.Float `json:"impliedGrowth"`
	AltmanZ       null.Float `json:"altmanZ"`
}

// SnapshotFromRecord extracts the archived columns of a record.
func SnapshotFromRecord(r *CompanyRecord, at time.Time) ValuationSnapshot {
	return ValuationSnapshot{
		Ticker:        r.Ticker,
		Period:        r.Period,
		CapturedAt:    at.UTC(),
		Price:         r.Price,
		DCFBase:       r.Valuation.DCF.Base,
		Graham:        r.Valuation.Graham,
		Lynch:         r.Valuation.Lynch,
		ImpliedGrowth: r.Valuation.ImpliedGrowth,
		AltmanZ:       r.Snapshots.AltmanZ,
	}
}

// TrendingPayload is served by /trending.
type TrendingPayload struct {
	Tickers     []string `json:"tickers"`
	LastUpdated string   `json:"lastUpdated"`
}

// SearchResult is one ranked search hit.
type SearchResult struct {
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// SearchResponse is served by /search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// HistoryResponse is served by /stock/:ticker/history.
type HistoryResponse struct {
	Ticker    string              `json:"ticker"`
	Period    Period              `json:"period"`
	Snapshots []ValuationSnapshot `json:"snapshots"`
}
