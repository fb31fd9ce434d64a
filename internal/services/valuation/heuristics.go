package valuation

import (
	"math"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/services/ratios"
	"ValueCheck/pkg/numeric"

	"github.com/guregu/null/v6"
)

// Growth clamps. Graham and Lynch use different ranges; both are business rules.
const (
	GrahamGrowthMax     = 0.15
	GrahamGrowthDefault = 0.05
	LynchGrowthMax      = 0.25
	grahamBase          = 8.5
	grahamPriceBound    = 6
	epsTrailingWindow   = 3
)

// NormalizeGrowth clamps a growth fraction to [0, ceiling]. A missing input yields fallback.
func NormalizeGrowth(g null.Float, ceiling float64, fallback null.Float) null.Float {
	if !ratios.Present(g) {
		return fallback
	}
	return null.FloatFrom(numeric.Clamp(g.Float64, 0, ceiling))
}

// Graham returns eps·(8.5 + 2·g) with g in percent, clamped to [0, 15%] and
// defaulting to 5%. It is null when eps <= 0, when the value is not a positive
// finite number, or when it exceeds six times a known price.
func Graham(eps, growth, price null.Float) null.Float {
	if !ratios.Present(eps) || eps.Float64 <= 0 {
		return null.Float{}
	}
	g := NormalizeGrowth(growth, GrahamGrowthMax, null.FloatFrom(GrahamGrowthDefault))
	v := eps.Float64 * (grahamBase + 2*g.Float64*100)
	if !numeric.Finite(v) || v <= 0 {
		return null.Float{}
	}
	if ratios.Present(price) && price.Float64 > 0 && v > grahamPriceBound*price.Float64 {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// Lynch returns eps·g with g in percent, clamped to [0, 25%].
// A missing growth rate yields null; so does eps <= 0.
func Lynch(eps, growth null.Float) null.Float {
	g := NormalizeGrowth(growth, LynchGrowthMax, null.Float{})
	if !g.Valid || !ratios.Present(eps) || eps.Float64 <= 0 {
		return null.Float{}
	}
	v := eps.Float64 * g.Float64 * 100
	if !numeric.Finite(v) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// EarningsGrowth is the compound annual growth of net income from the oldest
// to the newest entry of the series.
func EarningsGrowth(netIncome models.Series) null.Float {
	n := len(netIncome.Facts)
	if n < 2 {
		return null.Float{}
	}
	start, end := netIncome.Oldest(), netIncome.Latest()
	if start.Float64 <= 0 || end.Float64 <= 0 {
		return null.Float{}
	}
	g := math.Pow(end.Float64/start.Float64, 1/float64(n-1)) - 1
	if !numeric.Finite(g) {
		return null.Float{}
	}
	return null.FloatFrom(g)
}

// NormalizedEPS averages the positive net income of the newest three years
// and divides by shares. With fewer than two positive years it falls back
// to the latest net income per share.
func NormalizedEPS(netIncome models.Series, shares null.Float) null.Float {
	if !ratios.Present(shares) || shares.Float64 <= 0 || netIncome.Empty() {
		return null.Float{}
	}
	window := netIncome.Facts
	if len(window) > epsTrailingWindow {
		window = window[:epsTrailingWindow]
	}
	positives := make([]float64, 0, len(window))
	for _, f := range window {
		if f.Value > 0 && numeric.Finite(f.Value) {
			positives = append(positives, f.Value)
		}
	}
	if len(positives) >= 2 {
		return null.FloatFrom(numeric.Mean(positives) / shares.Float64)
	}
	latest := netIncome.Latest()
	if !ratios.Present(latest) {
		return null.Float{}
	}
	return null.FloatFrom(latest.Float64 / shares.Float64)
}
