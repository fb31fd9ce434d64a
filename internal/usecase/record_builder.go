package usecase

import (
	"context"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/services/facts"
	"ValueCheck/internal/services/ratios"
	"ValueCheck/internal/services/valuation"
	"ValueCheck/pkg/util"

	"github.com/guregu/null/v6"
)

const (
	recordCurrency = "USD"
	valuePlaces    = 2
	growthPlaces   = 1
)

// CurrencyNormalizer converts reported amounts into USD.
type CurrencyNormalizer interface {
	Rate(ctx context.Context, currency string) float64
	NormalizeSeries(ctx context.Context, s models.Series) models.Series
}

// BuildInput carries everything the builder reads. Quote may be nil.
type BuildInput struct {
	Company models.Company
	Period  models.Period
	Facts   *models.FactSet
	Quote   *models.Quote
	Now     time.Time
}

// RecordBuilder turns raw facts and a quote into a CompanyRecord.
type RecordBuilder struct {
	fx CurrencyNormalizer
}

func NewRecordBuilder(fx CurrencyNormalizer) *RecordBuilder {
	return &RecordBuilder{fx: fx}
}

// figures is the normalized series of one period, keyed by Concept.Key.
type figures map[string]models.Series

func (f figures) latest(c facts.Concept) null.Float { return f[c.Key].Latest() }

// Build computes the record. Missing inputs produce null metrics, never errors.
//
// Margins, returns and leverage use the requested period. DCF, Graham, Lynch,
// implied growth, Altman Z, shareholder yield and earnings consistency always
// use annual series.
func (b *RecordBuilder) Build(ctx context.Context, in BuildInput) *models.CompanyRecord {
	fs := in.Facts
	if fs == nil {
		fs = &models.FactSet{}
	}

	current := b.normalize(ctx, facts.SelectAll(fs, in.Period))
	annual := current
	if in.Period != models.PeriodAnnual {
		annual = b.normalize(ctx, facts.SelectAll(fs, models.PeriodAnnual))
	}

	price, marketCap, shares, sharesFact := b.market(ctx, fs, in.Quote)

	rec := &models.CompanyRecord{
		Ticker:            in.Company.Ticker,
		Name:              recordName(fs, in.Quote, in.Company),
		Industry:          fs.Industry,
		Period:            in.Period,
		Price:             ratios.Round(price, valuePlaces),
		MarketCap:         marketCap,
		SharesOutstanding: shares,
		Currency:          recordCurrency,
		ReportedCurrency:  reportedCurrency(current, annual),
		LastUpdated:       in.Now.UTC().Format(util.DateLayout),
		Metrics:           buildMetrics(current, annual),
		Snapshots:         buildSnapshots(annual, marketCap),
		Valuation:         buildValuation(annual, shares, price),
		Provenance:        buildProvenance(current, annual, sharesFact),
	}
	return rec
}

func (b *RecordBuilder) normalize(ctx context.Context, in map[string]models.Series) figures {
	out := make(figures, len(in))
	for k, s := range in {
		out[k] = b.fx.NormalizeSeries(ctx, s)
	}
	return out
}

// market resolves price, market cap and share count. The quote wins; shares
// fall back to the latest cover-page fact and market cap to price times shares.
func (b *RecordBuilder) market(ctx context.Context, fs *models.FactSet, q *models.Quote) (price, marketCap, shares null.Float, sharesFact *models.Fact) {
	if q != nil {
		rate := 1.0
		if q.Currency != "" && q.Currency != recordCurrency {
			rate = b.fx.Rate(ctx, q.Currency)
		}
		if ratios.Present(q.Price) {
			price = null.FloatFrom(q.Price.Float64 * rate)
		}
		if ratios.Present(q.MarketCap) && q.MarketCap.Float64 > 0 {
			marketCap = null.FloatFrom(q.MarketCap.Float64 * rate)
		}
		if ratios.Present(q.SharesOutstanding) && q.SharesOutstanding.Float64 > 0 {
			shares = q.SharesOutstanding
		}
	}
	if !shares.Valid {
		if f, ok := facts.LatestFact(fs.Concepts, facts.SharesOutstanding.Tags, facts.UnitShares); ok && f.Value > 0 {
			shares = null.FloatFrom(f.Value)
			sharesFact = &f
		}
	}
	if !marketCap.Valid && price.Valid && shares.Valid {
		marketCap = null.FloatFrom(price.Float64 * shares.Float64)
	}
	return price, marketCap, shares, sharesFact
}

func buildMetrics(cur, annual figures) models.Metrics {
	revenue := cur.latest(facts.Revenue)
	netIncome := cur.latest(facts.NetIncome)
	equity := cur.latest(facts.Equity)

	profitable, years, pass := ratios.ConsistentEarnings(annual[facts.NetIncome.Key])

	return models.Metrics{
		GrossMargin:             ratios.GrossMargin(cur.latest(facts.GrossProfit), revenue),
		SGAEfficiency:           ratios.SGAEfficiency(cur.latest(facts.SGA), revenue),
		RDReliance:              ratios.RDReliance(cur.latest(facts.RD), revenue),
		NetMargin:               ratios.NetMargin(netIncome, revenue),
		ConsistentEarnings:      profitable,
		ConsistentEarningsYears: years,
		ConsistentEarningsPass:  pass,
		InterestCoverage:        ratios.InterestCoverage(cur.latest(facts.EBIT), cur.latest(facts.InterestExpense)),
		DebtToEquity:            ratios.DebtToEquity(cur.latest(facts.LongTermDebt), cur.latest(facts.ShortTermDebt), equity),
		ROE:                     ratios.ROE(netIncome, equity),
		CapexEfficiency:         ratios.CapexEfficiency(cur.latest(facts.Capex), cur.latest(facts.OperatingCashFlow)),
	}
}

func buildSnapshots(annual figures, marketCap null.Float) models.Snapshots {
	z := ratios.AltmanZ(ratios.AltmanInputs{
		WorkingCapital:   ratios.WorkingCapital(annual.latest(facts.CurrentAssets), annual.latest(facts.CurrentLiabilities)),
		RetainedEarnings: annual.latest(facts.RetainedEarnings),
		EBIT:             annual.latest(facts.EBIT),
		MarketCap:        marketCap,
		TotalLiabilities: annual.latest(facts.Liabilities),
		Revenue:          annual.latest(facts.Revenue),
		TotalAssets:      annual.latest(facts.Assets),
	})
	return models.Snapshots{
		ShareholderYield: ratios.ShareholderYield(annual.latest(facts.Dividends), annual.latest(facts.Repurchases), marketCap),
		Solvency:         ratios.SolvencyLabel(z),
		AltmanZ:          z,
	}
}

func buildValuation(annual figures, shares, price null.Float) models.Valuation {
	fcf := ratios.FreeCashFlow(annual.latest(facts.OperatingCashFlow), annual.latest(facts.Capex))
	scenarios := valuation.DCFScenarios(fcf, shares)

	netIncome := annual[facts.NetIncome.Key]
	eps := valuation.NormalizedEPS(netIncome, shares)
	growth := valuation.EarningsGrowth(netIncome)

	implied := valuation.ImpliedGrowth(fcf, shares, price)
	if implied.Valid {
		implied = null.FloatFrom(implied.Float64 * 100)
	}

	return models.Valuation{
		DCF: models.DCFRange{
			Low:  ratios.Round(scenarios.Low, valuePlaces),
			Base: ratios.Round(scenarios.Base, valuePlaces),
			High: ratios.Round(scenarios.High, valuePlaces),
		},
		Graham:        ratios.Round(valuation.Graham(eps, growth, price), valuePlaces),
		Lynch:         ratios.Round(valuation.Lynch(eps, growth), valuePlaces),
		ImpliedGrowth: ratios.Round(implied, growthPlaces),
		Current:       ratios.Round(price, valuePlaces),
	}
}

// metricInputs names the concepts behind one record field. Annual inputs are
// read from the annual series whatever the requested period; shares adds the
// share count fact when it came from the filings.
type metricInputs struct {
	key      string
	annual   bool
	shares   bool
	concepts []facts.Concept
}

var provenanceInputs = []metricInputs{
	{key: "grossMargin", concepts: []facts.Concept{facts.GrossProfit, facts.Revenue}},
	{key: "sgaEfficiency", concepts: []facts.Concept{facts.SGA, facts.Revenue}},
	{key: "rdReliance", concepts: []facts.Concept{facts.RD, facts.Revenue}},
	{key: "netMargin", concepts: []facts.Concept{facts.NetIncome, facts.Revenue}},
	{key: "consistentEarnings", annual: true, concepts: []facts.Concept{facts.NetIncome}},
	{key: "interestCoverage", concepts: []facts.Concept{facts.EBIT, facts.InterestExpense}},
	{key: "debtToEquity", concepts: []facts.Concept{facts.LongTermDebt, facts.ShortTermDebt, facts.Equity}},
	{key: "roe", concepts: []facts.Concept{facts.NetIncome, facts.Equity}},
	{key: "capexEfficiency", concepts: []facts.Concept{facts.Capex, facts.OperatingCashFlow}},
	{key: "shareholderYield", annual: true, concepts: []facts.Concept{facts.Dividends, facts.Repurchases}},
	{key: "altmanZ", annual: true, concepts: []facts.Concept{
		facts.CurrentAssets, facts.CurrentLiabilities, facts.RetainedEarnings, facts.EBIT,
		facts.Liabilities, facts.Revenue, facts.Assets,
	}},
	{key: "dcf", annual: true, shares: true, concepts: []facts.Concept{facts.OperatingCashFlow, facts.Capex}},
	{key: "graham", annual: true, shares: true, concepts: []facts.Concept{facts.NetIncome}},
	{key: "lynch", annual: true, shares: true, concepts: []facts.Concept{facts.NetIncome}},
	{key: "impliedGrowth", annual: true, shares: true, concepts: []facts.Concept{facts.OperatingCashFlow, facts.Capex}},
	{key: "sharesOutstanding", shares: true},
}

// buildProvenance maps every record field to the reported facts it was computed from.
func buildProvenance(cur, annual figures, sharesFact *models.Fact) map[string][]models.ProvenanceEntry {
	out := make(map[string][]models.ProvenanceEntry)
	for _, m := range provenanceInputs {
		src := cur
		if m.annual {
			src = annual
		}
		var entries []models.ProvenanceEntry
		for _, c := range m.concepts {
			if e, ok := provenanceOf(src[c.Key]); ok {
				entries = append(entries, e)
			}
		}
		if m.shares && sharesFact != nil {
			entries = append(entries, models.ProvenanceEntry{
				Tag:        sharesFact.Tag,
				Unit:       sharesFact.Unit,
				FiscalYear: sharesFact.Year(),
				PeriodEnd:  sharesFact.PeriodEnd,
				Form:       sharesFact.Form,
			})
		}
		if len(entries) > 0 {
			out[m.key] = entries
		}
	}
	return out
}

func provenanceOf(s models.Series) (models.ProvenanceEntry, bool) {
	f, ok := s.LatestFact()
	if !ok {
		return models.ProvenanceEntry{}, false
	}
	unit := s.ReportedUnit
	if unit == "" {
		unit = s.Unit
	}
	return models.ProvenanceEntry{
		Tag:        s.Tag,
		Unit:       unit,
		FiscalYear: f.Year(),
		PeriodEnd:  f.PeriodEnd,
		Form:       f.Form,
	}, true
}

func recordName(fs *models.FactSet, q *models.Quote, c models.Company) string {
	switch {
	case fs.EntityName != "":
		return fs.EntityName
	case c.Title != "":
		return c.Title
	case q != nil && q.Name != "":
		return q.Name
	default:
		return c.Ticker
	}
}

// reportedCurrency is the first non-USD currency the filings used, or USD.
func reportedCurrency(sets ...figures) string {
	for _, set := range sets {
		for _, c := range facts.Catalog {
			if u := set[c.Key].ReportedUnit; u != "" && u != recordCurrency && util.IsCurrencyCode(u) {
				return u
			}
		}
	}
	return recordCurrency
}
