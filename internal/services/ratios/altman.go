package ratios

import (
	"ValueCheck/internal/domain/models"

	"github.com/guregu/null/v6"
)

// AltmanInputs are the seven figures of the original Altman Z-score.
type AltmanInputs struct {
	WorkingCapital   null.Float
	RetainedEarnings null.Float
	EBIT             null.Float
	MarketCap        null.Float
	TotalLiabilities null.Float
	Revenue          null.Float
	TotalAssets      null.Float
}

func (in AltmanInputs) complete() bool {
	for _, v := range []null.Float{
		in.WorkingCapital, in.RetainedEarnings, in.EBIT, in.MarketCap,
		in.TotalLiabilities, in.Revenue, in.TotalAssets,
	} {
		if !Present(v) {
			return false
		}
	}
	return in.TotalAssets.Float64 != 0 && in.TotalLiabilities.Float64 != 0
}

// AltmanZ computes
//
//	1.2·WC/TA + 1.4·RE/TA + 3.3·EBIT/TA + 0.6·MC/TL + 1.0·Sales/TA
//
// rounded to two decimals.
func AltmanZ(in AltmanInputs) null.Float {
	if !in.complete() {
		return null.Float{}
	}
	ta := in.TotalAssets.Float64
	z := 1.2*(in.WorkingCapital.Float64/ta) +
		1.4*(in.RetainedEarnings.Float64/ta) +
		3.3*(in.EBIT.Float64/ta) +
		0.6*(in.MarketCap.Float64/in.TotalLiabilities.Float64) +
		1.0*(in.Revenue.Float64/ta)
	return Round(null.FloatFrom(z), ratioPlaces)
}

// SolvencyLabel buckets an Altman Z-score.
func SolvencyLabel(z null.Float) string {
	switch {
	case !Present(z):
		return models.SolvencyUnknown
	case z.Float64 >= 3:
		return models.SolvencySafe
	case z.Float64 >= 1.8:
		return models.SolvencyCaution
	default:
		return models.SolvencyRisk
	}
}
