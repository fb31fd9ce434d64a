package models

import (
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
)

// Period selects annual or quarterly filings.
type Period string

const (
	PeriodAnnual    Period = "annual"
	PeriodQuarterly Period = "quarterly"
)

// ParsePeriod maps user input to a Period, defaulting to annual.
func ParsePeriod(s string) Period {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quarterly", "quarter", "q":
		return PeriodQuarterly
	default:
		return PeriodAnnual
	}
}

// Fact is one reported XBRL datapoint, kept verbatim from the provider.
type Fact struct {
	Tag          string  `json:"tag"`
	Unit         string  `json:"unit"`
	Value        float64 `json:"val"`
	FiscalYear   int     `json:"fy"`
	FiscalPeriod string  `json:"fp"`
	PeriodStart  string  `json:"start,omitempty"`
	PeriodEnd    string  `json:"end"`
	Form         string  `json:"form"`
	Filed        string  `json:"filed"`
}

// Year returns the fiscal year, falling back to the year of the period end.
func (f Fact) Year() int {
	if f.FiscalYear > 0 {
		return f.FiscalYear
	}
	if len(f.PeriodEnd) >= 4 {
		if y, err := strconv.Atoi(f.PeriodEnd[:4]); err == nil {
			return y
		}
	}
	return 0
}

// ConceptUnits holds every fact reported for one concept, keyed by unit.
type ConceptUnits map[string][]Fact

// FactSet is the provider-neutral company facts document.
type FactSet struct {
	EntityName string
	Industry   string
	// Concepts merges all taxonomies: concept name -> unit -> facts.
	Concepts map[string]ConceptUnits
}

// Series is the selected time series for one canonical concept, newest first.
type Series struct {
	Tag          string
	Unit         string
	ReportedUnit string
	Facts        []Fact
}

// Empty reports whether the series has no facts.
func (s Series) Empty() bool { return len(s.Facts) == 0 }

// Latest returns the newest value.
func (s Series) Latest() null.Float {
	if s.Empty() {
		return null.Float{}
	}
	return null.FloatFrom(s.Facts[0].Value)
}

// LatestFact returns the newest fact.
func (s Series) LatestFact() (Fact, bool) {
	if s.Empty() {
		return Fact{}, false
	}
	return s.Facts[0], true
}

// Oldest returns the oldest value.
func (s Series) Oldest() null.Float {
	if s.Empty() {
		return null.Float{}
	}
	return null.FloatFrom(s.Facts[len(s.Facts)-1].Value)
}

// Values returns the raw values, newest first.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Facts))
	for i, f := range s.Facts {
		out[i] = f.Value
	}
	return out
}

// Quote is the market data for one symbol. Any field may be missing.
type Quote struct {
	Symbol            string     `json:"symbol"`
	Name              string     `json:"name,omitempty"`
	Price             null.Float `json:"price"`
	MarketCap         null.Float `json:"marketCap"`
	SharesOutstanding null.Float `json:"sharesOutstanding"`
	Currency          string     `json:"currency,omitempty"`
	Source            string     `json:"source,omitempty"`
}

// Company is a resolved registry entry.
type Company struct {
	Ticker string `json:"ticker"`
	CIK    string `json:"cik"`
	Title  string `json:"title"`
}
