// Package ratios holds the pure ratio and percentage formulas of the metrics record.
//
// Every function takes nullable inputs and returns null unless all required inputs
// are present and finite and every denominator is non-zero. None of them panic.
package ratios

import (
	"math"

	"ValueCheck/internal/domain/models"
	"ValueCheck/pkg/numeric"

	"github.com/guregu/null/v6"
)

const (
	percentPlaces = 1
	ratioPlaces   = 2
)

// Present reports whether v holds a finite number.
func Present(v null.Float) bool {
	return v.Valid && numeric.Finite(v.Float64)
}

// Round rounds a present value and passes null through.
func Round(v null.Float, places int) null.Float {
	if !Present(v) {
		return null.Float{}
	}
	return null.FloatFrom(numeric.Round(v.Float64, places))
}

// divide returns num/den, or null when an input is missing or den is zero.
func divide(num, den null.Float) null.Float {
	if !Present(num) || !Present(den) || den.Float64 == 0 {
		return null.Float{}
	}
	q := num.Float64 / den.Float64
	if !numeric.Finite(q) {
		return null.Float{}
	}
	return null.FloatFrom(q)
}

func percent(num, den null.Float) null.Float {
	q := divide(num, den)
	if !q.Valid {
		return q
	}
	return null.FloatFrom(numeric.Round(q.Float64*100, percentPlaces))
}

func abs(v null.Float) null.Float {
	if !Present(v) {
		return null.Float{}
	}
	return null.FloatFrom(math.Abs(v.Float64))
}

// GrossMargin is grossProfit / revenue as a percentage.
func GrossMargin(grossProfit, revenue null.Float) null.Float { return percent(grossProfit, revenue) }

// NetMargin is netIncome / revenue as a percentage.
func NetMargin(netIncome, revenue null.Float) null.Float { return percent(netIncome, revenue) }

// SGAEfficiency is sga / revenue as a percentage.
func SGAEfficiency(sga, revenue null.Float) null.Float { return percent(sga, revenue) }

// RDReliance is rd / revenue as a percentage.
func RDReliance(rd, revenue null.Float) null.Float { return percent(rd, revenue) }

// ROE is netIncome / equity as a percentage.
func ROE(netIncome, equity null.Float) null.Float { return percent(netIncome, equity) }

// CapexEfficiency is |capex| / |operatingCashFlow| as a percentage.
func CapexEfficiency(capex, operatingCashFlow null.Float) null.Float {
	return percent(abs(capex), abs(operatingCashFlow))
}

// InterestCoverage is |ebit| / |interestExpense|.
func InterestCoverage(ebit, interestExpense null.Float) null.Float {
	return Round(divide(abs(ebit), abs(interestExpense)), ratioPlaces)
}

// TotalDebt sums long and short debt. It is null only when both parts are null.
func TotalDebt(longDebt, shortDebt null.Float) null.Float {
	if !Present(longDebt) && !Present(shortDebt) {
		return null.Float{}
	}
	return null.FloatFrom(longDebt.ValueOrZero() + shortDebt.ValueOrZero())
}

// DebtToEquity is (longDebt + shortDebt) / equity.
func DebtToEquity(longDebt, shortDebt, equity null.Float) null.Float {
	return Round(divide(TotalDebt(longDebt, shortDebt), equity), ratioPlaces)
}

// FreeCashFlow is operatingCashFlow - |capex|.
func FreeCashFlow(operatingCashFlow, capex null.Float) null.Float {
	if !Present(operatingCashFlow) || !Present(capex) {
		return null.Float{}
	}
	return null.FloatFrom(operatingCashFlow.Float64 - math.Abs(capex.Float64))
}

// WorkingCapital is currentAssets - currentLiabilities.
func WorkingCapital(currentAssets, currentLiabilities null.Float) null.Float {
	if !Present(currentAssets) || !Present(currentLiabilities) {
		return null.Float{}
	}
	return null.FloatFrom(currentAssets.Float64 - currentLiabilities.Float64)
}

// ShareholderYield is (|dividends| + |repurchases|) / marketCap as a percentage.
// At least one of dividends or repurchases must be present.
func ShareholderYield(dividends, repurchases, marketCap null.Float) null.Float {
	if !Present(dividends) && !Present(repurchases) {
		return null.Float{}
	}
	returned := math.Abs(dividends.ValueOrZero()) + math.Abs(repurchases.ValueOrZero())
	return percent(null.FloatFrom(returned), marketCap)
}

// ConsistentEarnings counts profitable years in a net income series.
// pass requires every year profitable across at least five years.
func ConsistentEarnings(netIncome models.Series) (profitable, years int, pass bool) {
	years = len(netIncome.Facts)
	for _, f := range netIncome.Facts {
		if f.Value > 0 {
			profitable++
		}
	}
	return profitable, years, years >= 5 && profitable == years
}
