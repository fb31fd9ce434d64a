package valuation

import (
	"math"
	"math/rand"
	"testing"

	"ValueCheck/internal/domain/models"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) null.Float { return null.FloatFrom(v) }

func series(vals ...float64) models.Series {
	s := models.Series{}
	for _, v := range vals {
		s.Facts = append(s.Facts, models.Fact{Value: v})
	}
	return s
}

func TestDCFPerpetuityClosedForm(t *testing.T) {
	// With zero growth everywhere the model collapses to fcf / r.
	got := DCF(f(100), f(1), DCFParams{GrowthRate: 0, DiscountRate: 0.10, TerminalGrowth: 0})
	require.True(t, got.Valid)
	assert.InDelta(t, 1000, got.Float64, 1e-9)
}

func TestDCFNullGuards(t *testing.T) {
	assert.False(t, DCF(f(0), f(10), ScenarioBase).Valid)
	assert.False(t, DCF(f(100), f(0), ScenarioBase).Valid)
	assert.False(t, DCF(null.Float{}, f(10), ScenarioBase).Valid)
	assert.False(t, DCF(f(100), null.Float{}, ScenarioBase).Valid)
	assert.False(t, DCF(f(math.NaN()), f(10), ScenarioBase).Valid)
	assert.False(t, DCF(f(100), f(10), DCFParams{GrowthRate: 0.05, DiscountRate: 0.02, TerminalGrowth: 0.02}).Valid)
	assert.False(t, DCF(f(100), f(10), DCFParams{GrowthRate: 0.05, DiscountRate: 0.02, TerminalGrowth: 0.03}).Valid)
}

func TestDCFScenariosOrdered(t *testing.T) {
	s := DCFScenarios(f(1e9), f(1e8))
	require.True(t, s.Low.Valid && s.Base.Valid && s.High.Valid)
	assert.Less(t, s.Low.Float64, s.Base.Float64)
	assert.Less(t, s.Base.Float64, s.High.Float64)
}

func TestDCFMonotonicInGrowth(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		tg := rng.Float64()*0.04 - 0.01
		r := tg + 0.01 + rng.Float64()*0.15
		fcf := 1 + rng.Float64()*1e10
		shares := 1 + rng.Float64()*1e9
		g1 := rng.Float64()*0.4 - 0.1
		g2 := g1 + 0.001 + rng.Float64()*0.2

		v1 := DCF(f(fcf), f(shares), DCFParams{GrowthRate: g1, DiscountRate: r, TerminalGrowth: tg})
		v2 := DCF(f(fcf), f(shares), DCFParams{GrowthRate: g2, DiscountRate: r, TerminalGrowth: tg})
		require.True(t, v1.Valid && v2.Valid)
		if !(v1.Float64 < v2.Float64) {
			t.Fatalf("dcf not increasing: g1=%v v1=%v g2=%v v2=%v r=%v tg=%v", g1, v1.Float64, g2, v2.Float64, r, tg)
		}
	}
}

func TestImpliedGrowthRoundTrip(t *testing.T) {
	tolerance := (ImpliedGrowthHigh - ImpliedGrowthLow) / math.Pow(2, 30)
	for _, g := range []float64{-0.04, 0, 0.037, 0.12, 0.29} {
		fcf, shares := f(2.5e9), f(4e8)
		price := DCF(fcf, shares, DCFParams{GrowthRate: g, DiscountRate: ImpliedGrowthDiscount, TerminalGrowth: ImpliedGrowthTerminalGrowth})
		require.True(t, price.Valid)

		got := ImpliedGrowth(fcf, shares, price)
		require.True(t, got.Valid, "g=%v", g)
		assert.InDelta(t, g, got.Float64, tolerance, "g=%v", g)
	}
}

func TestImpliedGrowthNullCases(t *testing.T) {
	assert.False(t, ImpliedGrowth(f(100), f(10), null.Float{}).Valid)
	assert.False(t, ImpliedGrowth(f(100), f(10), f(0)).Valid)
	assert.False(t, ImpliedGrowth(f(0), f(10), f(50)).Valid)
	assert.False(t, ImpliedGrowth(f(100), null.Float{}, f(50)).Valid)
	// negative cash flow makes the DCF negative at both bounds
	assert.False(t, ImpliedGrowth(f(-100), f(10), f(50)).Valid)
}

func TestImpliedGrowthClampsToSearchBounds(t *testing.T) {
	got := ImpliedGrowth(f(1e9), f(1e8), f(1e6))
	require.True(t, got.Valid)
	assert.InDelta(t, ImpliedGrowthHigh, got.Float64, 1e-8)
}

func TestGraham(t *testing.T) {
	assert.InDelta(t, 142.5, Graham(f(5), f(0.10), f(100)).Float64, 1e-9)
	assert.InDelta(t, 92.5, Graham(f(5), null.Float{}, f(100)).Float64, 1e-9)
	assert.InDelta(t, 92.5, Graham(f(5), f(math.NaN()), f(100)).Float64, 1e-9)
	assert.InDelta(t, 192.5, Graham(f(5), f(0.40), f(100)).Float64, 1e-9)
	assert.InDelta(t, 42.5, Graham(f(5), f(-0.2), f(100)).Float64, 1e-9)
	assert.True(t, Graham(f(5), f(0.10), null.Float{}).Valid)

	assert.False(t, Graham(f(0), f(0.1), f(100)).Valid)
	assert.False(t, Graham(f(-1), f(0.1), f(100)).Valid)
	assert.False(t, Graham(null.Float{}, f(0.1), f(100)).Valid)
	assert.False(t, Graham(f(5), f(0.10), f(20)).Valid, "above six times price")
}

func TestLynch(t *testing.T) {
	assert.InDelta(t, 50, Lynch(f(5), f(0.10)).Float64, 1e-9)
	assert.InDelta(t, 125, Lynch(f(5), f(0.5)).Float64, 1e-9)
	assert.Equal(t, f(0), Lynch(f(5), f(-0.1)))

	assert.False(t, Lynch(f(5), null.Float{}).Valid)
	assert.False(t, Lynch(f(5), f(math.NaN())).Valid)
	assert.False(t, Lynch(f(-5), f(0.1)).Valid)
}

func TestEarningsGrowth(t *testing.T) {
	assert.InDelta(t, 0.10, EarningsGrowth(series(121, 110, 100)).Float64, 1e-12)
	assert.False(t, EarningsGrowth(series(100)).Valid)
	assert.False(t, EarningsGrowth(series(100, -5)).Valid)
	assert.False(t, EarningsGrowth(series(-5, 100)).Valid)
}

func TestNormalizedEPS(t *testing.T) {
	assert.InDelta(t, 2.5, NormalizedEPS(series(30, -5, 20, 100), f(10)).Float64, 1e-12)
	assert.InDelta(t, 3.0, NormalizedEPS(series(30, -5, -2), f(10)).Float64, 1e-12)
	assert.InDelta(t, -0.5, NormalizedEPS(series(-5, -2, 1), f(10)).Float64, 1e-12)
	assert.False(t, NormalizedEPS(series(30), f(0)).Valid)
	assert.False(t, NormalizedEPS(models.Series{}, f(10)).Valid)
}
