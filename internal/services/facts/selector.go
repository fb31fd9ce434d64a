package facts

import (
	"sort"
	"strings"

	"ValueCheck/internal/domain/models"
	"ValueCheck/pkg/util"
)

var (
	annualForms = map[string]bool{
		"10-K": true, "10-K/A": true,
		"20-F": true, "20-F/A": true,
		"40-F": true, "40-F/A": true,
	}
	quarterlyForms = map[string]bool{"10-Q": true, "10-Q/A": true}
	quarterMarkers = map[string]int{"Q1": 1, "Q2": 2, "Q3": 3, "Q4": 4}
	// FYI is what some 20-F and 40-F filers put in fp for the full year.
	annualMarkers = map[string]bool{"FY": true, "FYI": true, "": true}
)

// SelectSeries returns the series of the first candidate tag with data for period.
// Tags are never merged. An empty series means the concept is unavailable.
func SelectSeries(concepts map[string]models.ConceptUnits, tags []string, period models.Period, preferredUnit string) models.Series {
	for _, tag := range tags {
		units, ok := concepts[tag]
		if !ok || len(units) == 0 {
			continue
		}
		unit := resolveUnit(units, preferredUnit)
		if unit == "" {
			continue
		}
		series := filterFacts(units[unit], period)
		if len(series) == 0 {
			continue
		}
		for i := range series {
			series[i].Tag = tag
			series[i].Unit = unit
		}
		return models.Series{Tag: tag, Unit: unit, ReportedUnit: unit, Facts: series}
	}
	return models.Series{}
}

// LatestFact returns the most recent fact of the first tag with data in unit,
// regardless of form. Cover-page values such as share counts use it.
func LatestFact(concepts map[string]models.ConceptUnits, tags []string, unit string) (models.Fact, bool) {
	for _, tag := range tags {
		units, ok := concepts[tag]
		if !ok {
			continue
		}
		items := units[unit]
		if len(items) == 0 {
			continue
		}
		best := items[0]
		for _, f := range items[1:] {
			if f.PeriodEnd > best.PeriodEnd || (f.PeriodEnd == best.PeriodEnd && f.Filed > best.Filed) {
				best = f
			}
		}
		best.Tag = tag
		best.Unit = unit
		return best, true
	}
	return models.Fact{}, false
}

// resolveUnit keeps the preferred unit when it has facts, otherwise picks the unit
// with the most facts (ties by name).
func resolveUnit(units models.ConceptUnits, preferred string) string {
	if len(units[preferred]) > 0 {
		return preferred
	}
	best, bestN := "", 0
	for unit, items := range units {
		n := len(items)
		if n > bestN || (n == bestN && n > 0 && unit < best) {
			best, bestN = unit, n
		}
	}
	return best
}

type periodKey struct {
	year    int
	quarter int
}

func filterFacts(items []models.Fact, period models.Period) []models.Fact {
	byKey := make(map[periodKey]models.Fact)
	for _, f := range items {
		key, ok := classify(f, period)
		if !ok {
			continue
		}
		cur, exists := byKey[key]
		if !exists || preferFact(f, cur, period) {
			byKey[key] = f
		}
	}

	out := make([]models.Fact, 0, len(byKey))
	keys := make([]periodKey, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year > keys[j].year
		}
		return keys[i].quarter > keys[j].quarter
	})
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

func classify(f models.Fact, period models.Period) (periodKey, bool) {
	form := strings.ToUpper(strings.TrimSpace(f.Form))
	fp := strings.ToUpper(strings.TrimSpace(f.FiscalPeriod))
	year := f.Year()
	if year == 0 {
		return periodKey{}, false
	}
	if period == models.PeriodQuarterly {
		q, ok := quarterMarkers[fp]
		if !quarterlyForms[form] || !ok {
			return periodKey{}, false
		}
		return periodKey{year: year, quarter: q}, true
	}
	if !annualForms[form] || !annualMarkers[fp] {
		return periodKey{}, false
	}
	return periodKey{year: year}, true
}

// preferFact reports whether candidate should replace current for the same period key.
// Later period end wins. On equal ends annual keeps the longer duration and
// quarterly the shorter one, then the later filing wins.
func preferFact(candidate, current models.Fact, period models.Period) bool {
	if candidate.PeriodEnd != current.PeriodEnd {
		return candidate.PeriodEnd > current.PeriodEnd
	}
	cd := util.DaysBetween(candidate.PeriodStart, candidate.PeriodEnd)
	od := util.DaysBetween(current.PeriodStart, current.PeriodEnd)
	if cd != od && cd > 0 && od > 0 {
		if period == models.PeriodQuarterly {
			return cd < od
		}
		return cd > od
	}
	return filedAfter(candidate.Filed, current.Filed)
}

// filedAfter compares filing dates, falling back to the raw strings when
// either side does not parse.
func filedAfter(candidate, current string) bool {
	c, ok1 := util.ParseTime(candidate)
	o, ok2 := util.ParseTime(current)
	switch {
	case ok1 && ok2:
		return c.After(o)
	case ok1 != ok2:
		return ok1
	}
	return candidate > current
}
