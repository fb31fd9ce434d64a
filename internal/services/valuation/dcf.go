// Package valuation implements the fair-value models of the record:
// a ten-year DCF with Gordon terminal value, its implied-growth inverse,
// and the Graham and Lynch heuristics.
package valuation

import (
	"math"

	"ValueCheck/internal/services/ratios"
	"ValueCheck/pkg/numeric"

	"github.com/guregu/null/v6"
)

// ProjectionYears is the explicit forecast horizon of the DCF.
const ProjectionYears = 10

// DCFParams are the rates of one DCF scenario, as fractions.
type DCFParams struct {
	GrowthRate     float64
	DiscountRate   float64
	TerminalGrowth float64
}

// Valid reports whether the Gordon terminal value is defined.
func (p DCFParams) Valid() bool {
	return numeric.Finite(p.GrowthRate) && numeric.Finite(p.DiscountRate) && numeric.Finite(p.TerminalGrowth) &&
		p.DiscountRate > p.TerminalGrowth && p.DiscountRate > -1
}

// Scenario parameter triples.
var (
	ScenarioLow  = DCFParams{GrowthRate: 0.02, DiscountRate: 0.12, TerminalGrowth: 0.02}
	ScenarioBase = DCFParams{GrowthRate: 0.05, DiscountRate: 0.10, TerminalGrowth: 0.02}
	ScenarioHigh = DCFParams{GrowthRate: 0.08, DiscountRate: 0.08, TerminalGrowth: 0.025}
)

// Implied-growth search settings.
const (
	ImpliedGrowthLow            = -0.05
	ImpliedGrowthHigh           = 0.30
	ImpliedGrowthDiscount       = 0.10
	ImpliedGrowthTerminalGrowth = 0.02
)

// DCF returns the per-share value of freeCashFlow grown for ProjectionYears
// and discounted at p.DiscountRate, plus a discounted Gordon terminal value.
// It is null when freeCashFlow or shares is missing or zero, when
// DiscountRate <= TerminalGrowth, or when the result is not finite.
func DCF(freeCashFlow, shares null.Float, p DCFParams) null.Float {
	if !ratios.Present(freeCashFlow) || !ratios.Present(shares) || freeCashFlow.Float64 == 0 || shares.Float64 == 0 {
		return null.Float{}
	}
	if !p.Valid() {
		return null.Float{}
	}
	v := dcfPerShare(freeCashFlow.Float64, shares.Float64, p)
	if !numeric.Finite(v) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func dcfPerShare(fcf, shares float64, p DCFParams) float64 {
	cash := fcf
	total := 0.0
	for year := 1; year <= ProjectionYears; year++ {
		cash *= 1 + p.GrowthRate
		total += cash / math.Pow(1+p.DiscountRate, float64(year))
	}
	terminal := cash * (1 + p.TerminalGrowth) / (p.DiscountRate - p.TerminalGrowth)
	total += terminal / math.Pow(1+p.DiscountRate, ProjectionYears)
	return total / shares
}

// Scenarios holds the low, base and high DCF values.
type Scenarios struct {
	Low, Base, High null.Float
}

// DCFScenarios evaluates the three fixed scenarios.
func DCFScenarios(freeCashFlow, shares null.Float) Scenarios {
	return Scenarios{
		Low:  DCF(freeCashFlow, shares, ScenarioLow),
		Base: DCF(freeCashFlow, shares, ScenarioBase),
		High: DCF(freeCashFlow, shares, ScenarioHigh),
	}
}

// ImpliedGrowth returns the growth rate, as a fraction, at which the DCF with
// discount 10% and terminal growth 2% equals price. The search bisects
// [-5%, 30%] for 30 iterations and relies on the DCF rising with growth.
// It is null when an input is missing or zero, or when the DCF is non-positive
// anywhere the search looks.
func ImpliedGrowth(freeCashFlow, shares, price null.Float) null.Float {
	if !ratios.Present(price) || price.Float64 == 0 {
		return null.Float{}
	}
	if !ratios.Present(freeCashFlow) || !ratios.Present(shares) || freeCashFlow.Float64 == 0 || shares.Float64 == 0 {
		return null.Float{}
	}
	fcf, n := freeCashFlow.Float64, shares.Float64
	value := func(g float64) (float64, bool) {
		p := DCFParams{GrowthRate: g, DiscountRate: ImpliedGrowthDiscount, TerminalGrowth: ImpliedGrowthTerminalGrowth}
		if !p.Valid() {
			return 0, false
		}
		return dcfPerShare(fcf, n, p), true
	}
	g, ok := numeric.Bisect(value, price.Float64, ImpliedGrowthLow, ImpliedGrowthHigh, numeric.BisectOptions{
		Iterations: numeric.DefaultBisectIterations,
	})
	if !ok {
		return null.Float{}
	}
	return null.FloatFrom(g)
}
