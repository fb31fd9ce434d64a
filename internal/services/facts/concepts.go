package facts

import "ValueCheck/internal/domain/models"

// Concept is a canonical financial figure with its alias tags in priority order.
// us-gaap aliases come first, then ifrs-full, then FMP statement fields.
type Concept struct {
	Key  string
	Tags []string
	Unit string
}

const (
	UnitUSD    = "USD"
	UnitShares = "shares"
)

var (
	Revenue = Concept{Key: "revenue", Unit: UnitUSD, Tags: []string{
		"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet",
		"Revenue",
		"revenue",
	}}
	GrossProfit = Concept{Key: "grossProfit", Unit: UnitUSD, Tags: []string{
		"GrossProfit",
		"grossProfit",
	}}
	NetIncome = Concept{Key: "netIncome", Unit: UnitUSD, Tags: []string{
		"NetIncomeLoss",
		"ProfitLossAttributableToOwnersOfParent", "ProfitLoss",
		"netIncome",
	}}
	SGA = Concept{Key: "sga", Unit: UnitUSD, Tags: []string{
		"SellingGeneralAndAdministrativeExpense",
		"SellingGeneralAndAdministrativeExpenseByNature",
		"sellingGeneralAndAdministrativeExpenses",
	}}
	RD = Concept{Key: "rd", Unit: UnitUSD, Tags: []string{
		"ResearchAndDevelopmentExpense",
		"researchAndDevelopmentExpenses",
	}}
	EBIT = Concept{Key: "ebit", Unit: UnitUSD, Tags: []string{
		"OperatingIncomeLoss", "EarningsBeforeInterestAndTaxes",
		"ProfitLossFromOperatingActivities",
		"ebit", "operatingIncome",
	}}
	InterestExpense = Concept{Key: "interestExpense", Unit: UnitUSD, Tags: []string{
		"InterestExpense", "InterestExpenseDebt",
		"FinanceCosts",
		"interestExpense",
	}}
	Assets = Concept{Key: "assets", Unit: UnitUSD, Tags: []string{
		"Assets",
		"totalAssets",
	}}
	Liabilities = Concept{Key: "liabilities", Unit: UnitUSD, Tags: []string{
		"Liabilities",
		"totalLiabilities",
	}}
	Equity = Concept{Key: "equity", Unit: UnitUSD, Tags: []string{
		"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest",
		"EquityAttributableToOwnersOfParent", "Equity",
		"totalStockholdersEquity",
	}}
	CurrentAssets = Concept{Key: "currentAssets", Unit: UnitUSD, Tags: []string{
		"AssetsCurrent",
		"CurrentAssets",
		"totalCurrentAssets",
	}}
	CurrentLiabilities = Concept{Key: "currentLiabilities", Unit: UnitUSD, Tags: []string{
		"LiabilitiesCurrent",
		"CurrentLiabilities",
		"totalCurrentLiabilities",
	}}
	RetainedEarnings = Concept{Key: "retainedEarnings", Unit: UnitUSD, Tags: []string{
		"RetainedEarningsAccumulatedDeficit",
		"RetainedEarnings",
		"retainedEarnings",
	}}
	LongTermDebt = Concept{Key: "longTermDebt", Unit: UnitUSD, Tags: []string{
		"LongTermDebt", "LongTermDebtNoncurrent", "LongTermDebtAndCapitalLeaseObligations",
		"NoncurrentPortionOfNoncurrentBorrowings", "LongtermBorrowings",
		"longTermDebt",
	}}
	ShortTermDebt = Concept{Key: "shortTermDebt", Unit: UnitUSD, Tags: []string{
		"DebtCurrent", "LongTermDebtCurrent",
		"CurrentBorrowingsAndCurrentPortionOfNoncurrentBorrowings", "ShorttermBorrowings",
		"shortTermDebt",
	}}
	OperatingCashFlow = Concept{Key: "operatingCashFlow", Unit: UnitUSD, Tags: []string{
		"NetCashProvidedByUsedInOperatingActivities",
		"CashFlowsFromUsedInOperatingActivities",
		"operatingCashFlow", "netCashProvidedByOperatingActivities",
	}}
	Capex = Concept{Key: "capex", Unit: UnitUSD, Tags: []string{
		"PaymentsToAcquirePropertyPlantAndEquipment", "CapitalExpenditures",
		"PurchaseOfPropertyPlantAndEquipmentClassifiedAsInvestingActivities",
		"capitalExpenditure", "investmentsInPropertyPlantAndEquipment",
	}}
	Dividends = Concept{Key: "dividends", Unit: UnitUSD, Tags: []string{
		"PaymentsOfDividends", "PaymentsOfDividendsCommonStock",
		"DividendsPaidClassifiedAsFinancingActivities",
		"dividendsPaid", "commonDividendsPaid", "netDividendsPaid",
	}}
	Repurchases = Concept{Key: "repurchases", Unit: UnitUSD, Tags: []string{
		"PaymentsForRepurchaseOfCommonStock", "RepurchaseOfCommonStock",
		"PaymentsToAcquireOrRedeemEntitysShares",
		"commonStockRepurchased",
	}}
	SharesOutstanding = Concept{Key: "sharesOutstanding", Unit: UnitShares, Tags: []string{
		"EntityCommonStockSharesOutstanding",
		"weightedAverageShsOut",
	}}
)

// Catalog lists every concept the record builder selects, in a stable order.
var Catalog = []Concept{
	Revenue, GrossProfit, NetIncome, SGA, RD, EBIT, InterestExpense,
	Assets, Liabilities, Equity, CurrentAssets, CurrentLiabilities, RetainedEarnings,
	LongTermDebt, ShortTermDebt, OperatingCashFlow, Capex, Dividends, Repurchases,
}

// Select runs SelectSeries for a catalog concept.
func Select(fs *models.FactSet, c Concept, period models.Period) models.Series {
	if fs == nil {
		return models.Series{}
	}
	return SelectSeries(fs.Concepts, c.Tags, period, c.Unit)
}

// SelectAll selects every catalog concept for period, keyed by Concept.Key.
func SelectAll(fs *models.FactSet, period models.Period) map[string]models.Series {
	out := make(map[string]models.Series, len(Catalog))
	for _, c := range Catalog {
		out[c.Key] = Select(fs, c, period)
	}
	return out
}

// MergeTaxonomies folds taxonomy maps into one concept index.
// Earlier taxonomies win when a concept name appears twice.
func MergeTaxonomies(taxonomies ...map[string]models.ConceptUnits) map[string]models.ConceptUnits {
	out := make(map[string]models.ConceptUnits)
	for _, tax := range taxonomies {
		for name, units := range tax {
			if _, exists := out[name]; exists {
				continue
			}
			out[name] = units
		}
	}
	return out
}
