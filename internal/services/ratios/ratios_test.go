package ratios

import (
	"math"
	"testing"

	"ValueCheck/internal/domain/models"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

var (
	none = null.Float{}
	nan  = null.FloatFrom(math.NaN())
	inf  = null.FloatFrom(math.Inf(1))
	zero = null.FloatFrom(0)
)

func f(v float64) null.Float { return null.FloatFrom(v) }

func TestPercentFormulas(t *testing.T) {
	assert.Equal(t, f(43.3), GrossMargin(f(169148), f(391035)))
	assert.Equal(t, f(24.0), NetMargin(f(93736), f(391035)))
	assert.Equal(t, f(6.7), SGAEfficiency(f(26097), f(391035)))
	assert.Equal(t, f(8.0), RDReliance(f(31370), f(391035)))
	assert.Equal(t, f(164.6), ROE(f(93736), f(56950)))
	assert.Equal(t, f(8.0), CapexEfficiency(f(-9447), f(118254)))
}

func TestZeroNumeratorIsValid(t *testing.T) {
	assert.Equal(t, f(0), GrossMargin(zero, f(100)))
}

func TestBinaryRatiosNullRules(t *testing.T) {
	funcs := map[string]func(a, b null.Float) null.Float{
		"grossMargin":      GrossMargin,
		"netMargin":        NetMargin,
		"sga":              SGAEfficiency,
		"rd":               RDReliance,
		"roe":              ROE,
		"capex":            CapexEfficiency,
		"interestCoverage": InterestCoverage,
	}
	bad := []null.Float{none, nan, inf}
	for name, fn := range funcs {
		for _, b := range bad {
			assert.False(t, fn(b, f(10)).Valid, "%s numerator %v", name, b)
			assert.False(t, fn(f(10), b).Valid, "%s denominator %v", name, b)
		}
		assert.False(t, fn(f(10), zero).Valid, "%s zero denominator", name)
	}
}

func TestInterestCoverageUsesAbsoluteValues(t *testing.T) {
	assert.Equal(t, f(2.5), InterestCoverage(f(-50), f(20)))
	assert.Equal(t, f(33.33), InterestCoverage(f(100), f(-3)))
}

func TestDebtToEquity(t *testing.T) {
	assert.Equal(t, f(1.5), DebtToEquity(f(100), f(50), f(100)))
	assert.Equal(t, f(1.0), DebtToEquity(f(100), none, f(100)))
	assert.False(t, DebtToEquity(none, none, f(100)).Valid)
	assert.False(t, DebtToEquity(f(1), f(1), zero).Valid)
}

func TestFreeCashFlowAndWorkingCapital(t *testing.T) {
	assert.Equal(t, f(80), FreeCashFlow(f(100), f(-20)))
	assert.Equal(t, f(80), FreeCashFlow(f(100), f(20)))
	assert.False(t, FreeCashFlow(f(100), none).Valid)
	assert.Equal(t, f(25), WorkingCapital(f(75), f(50)))
	assert.False(t, WorkingCapital(none, f(50)).Valid)
}

func TestShareholderYield(t *testing.T) {
	assert.Equal(t, f(3.0), ShareholderYield(f(-10), f(-20), f(1000)))
	assert.Equal(t, f(1.0), ShareholderYield(f(-10), none, f(1000)))
	assert.False(t, ShareholderYield(none, none, f(1000)).Valid)
	assert.False(t, ShareholderYield(f(1), f(1), none).Valid)
	assert.False(t, ShareholderYield(f(1), f(1), zero).Valid)
}

func TestAltmanZClosedForm(t *testing.T) {
	z := AltmanZ(AltmanInputs{
		WorkingCapital:   f(100),
		RetainedEarnings: f(200),
		EBIT:             f(50),
		MarketCap:        f(1000),
		TotalLiabilities: f(400),
		Revenue:          f(500),
		TotalAssets:      f(800),
	})
	assert.Equal(t, f(2.83), z)
	assert.Equal(t, models.SolvencyCaution, SolvencyLabel(z))
}

func TestAltmanZNullGuards(t *testing.T) {
	base := AltmanInputs{
		WorkingCapital: f(1), RetainedEarnings: f(1), EBIT: f(1), MarketCap: f(1),
		TotalLiabilities: f(1), Revenue: f(1), TotalAssets: f(1),
	}
	assert.True(t, AltmanZ(base).Valid)

	missing := base
	missing.RetainedEarnings = none
	assert.False(t, AltmanZ(missing).Valid)

	zeroAssets := base
	zeroAssets.TotalAssets = zero
	assert.False(t, AltmanZ(zeroAssets).Valid)

	zeroLiabilities := base
	zeroLiabilities.TotalLiabilities = zero
	assert.False(t, AltmanZ(zeroLiabilities).Valid)

	assert.Equal(t, models.SolvencyUnknown, SolvencyLabel(AltmanZ(missing)))
}

func TestSolvencyLabelBoundaries(t *testing.T) {
	assert.Equal(t, models.SolvencySafe, SolvencyLabel(f(3)))
	assert.Equal(t, models.SolvencyCaution, SolvencyLabel(f(2.99)))
	assert.Equal(t, models.SolvencyCaution, SolvencyLabel(f(1.8)))
	assert.Equal(t, models.SolvencyRisk, SolvencyLabel(f(1.79)))
	assert.Equal(t, models.SolvencyUnknown, SolvencyLabel(nan))
}

func TestConsistentEarnings(t *testing.T) {
	series := func(vals ...float64) models.Series {
		s := models.Series{}
		for _, v := range vals {
			s.Facts = append(s.Facts, models.Fact{Value: v})
		}
		return s
	}

	p, y, pass := ConsistentEarnings(series(5, 4, 3, 2, 1))
	assert.Equal(t, 5, p)
	assert.Equal(t, 5, y)
	assert.True(t, pass)

	p, y, pass = ConsistentEarnings(series(5, -4, 3, 2, 1, 7))
	assert.Equal(t, 5, p)
	assert.Equal(t, 6, y)
	assert.False(t, pass)

	_, _, pass = ConsistentEarnings(series(1, 2, 3))
	assert.False(t, pass)
}
