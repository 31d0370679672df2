// Package investment implements the interest-price calculator: four
// project types (own, partner, partner flip, bank flip) over the same
// cost-breakdown machinery, plus the renovation cost estimator supplement
// (spec.md §4.9, SPEC_FULL.md §4.10).
package investment

import (
	"chrisgross-ctrl-project/internal/valuation"
)

// ProjectType names one of the four investment structures spec.md §4.9
// enumerates.
type ProjectType string

const (
	ProjectOwn         ProjectType = "own"
	ProjectPartner     ProjectType = "partner"
	ProjectPartnerFlip ProjectType = "partner_flip"
	ProjectBankFlip    ProjectType = "bank_flip"
)

// defaultRenovationBonusMultiplier is the business constant spec.md §9 keeps as a
// configurable input with default 1.8, rather than a hardcoded literal.
const defaultRenovationBonusMultiplier = 1.8

// Params mirrors the Python InvestmentParams defaults verbatim; every
// IncludeX/X pair gates a cost line in the breakdown the same way the
// source's _calculate_fixed_costs does.
type Params struct {
	BargainDiscount     float64 // default 0.07
	MonthlyRate         float64 // default 0.04, "4%/month"
	ProjectPeriodMonths int     // default 3

	PartnerSplit float64 // default 0.5, partner's share of the 50/50 split
	MinProfit    float64 // default 1_000_000, our floor when the period is short

	MortgageRate         float64 // default 0.02, "2%/month", bank_flip only
	MortgageIssueFee     float64 // default 0.0075
	MortgagePrepayMonths int     // default 3
	LTV                  float64 // default 0.8

	TaxRate float64 // default 0.06, always applied

	IncludeNotary   bool
	NotaryFee       float64 // default 50_000
	IncludeStateFee bool
	StateFee        float64 // default 4_000
	IncludePIP      bool
	PIPPerSqm       float64 // default 1_500
	IncludeAgency   bool
	AgencyFee       float64 // default 200_000

	IncludeUtilities   bool
	UtilitiesPerMonth  float64 // default 11_500

	IncludeEviction bool
	EvictionCost    float64 // default 150_000

	IncludeRenovation         bool
	RenovationPerSqm          float64 // default 50_000
	RenovationBonusMultiplier float64 // default 1.8 — resold-price uplift
	IncludeForeman            bool
	ForemanFee                float64 // default 100_000

	IncludeFinancing bool
	FinancingRate    float64 // default 0.30

	IncludeRegistratorsTransfer bool
	RegistratorsTransferFee     float64 // default 15_000
	IncludeRegistratorsMortgage bool
	RegistratorsMortgageFee     float64 // default 10_000
	IncludeConturRegistration   bool
	ConturRegistrationFee       float64 // default 4_000
}

// DefaultParams returns the Python model's field defaults.
func DefaultParams() Params {
	return Params{
		BargainDiscount:           0.07,
		MonthlyRate:               0.04,
		ProjectPeriodMonths:       3,
		PartnerSplit:              0.5,
		MinProfit:                 1_000_000,
		MortgageRate:              0.02,
		MortgageIssueFee:          0.0075,
		MortgagePrepayMonths:      3,
		LTV:                       0.8,
		TaxRate:                   0.06,
		NotaryFee:                 50_000,
		StateFee:                  4_000,
		PIPPerSqm:                 1_500,
		AgencyFee:                 200_000,
		UtilitiesPerMonth:         11_500,
		EvictionCost:              150_000,
		RenovationPerSqm:          50_000,
		RenovationBonusMultiplier: defaultRenovationBonusMultiplier,
		ForemanFee:                100_000,
		FinancingRate:             0.30,
		RegistratorsTransferFee:   15_000,
		RegistratorsMortgageFee:   10_000,
		ConturRegistrationFee:     4_000,
	}
}

func (p Params) renovationBonusMultiplier() float64 {
	if p.RenovationBonusMultiplier > 0 {
		return p.RenovationBonusMultiplier
	}
	return defaultRenovationBonusMultiplier
}

// breakdown is a running cost ledger; its entries surface verbatim in
// ValuationResponse.InvestmentBreakdown.
type breakdown map[string]float64

// fixedCostsNoRenovation computes the non-renovation, non-financing fixed cost lines
// common to all four project types, matching _calculate_fixed_costs with
// include_renovation/include_foreman forced off (the "no reno" pass every
// project type runs first).
func fixedCostsNoRenovation(p Params, areaTotal float64) (float64, breakdown) {
	total := 0.0
	b := breakdown{}

	if p.IncludeUtilities {
		v := p.UtilitiesPerMonth * float64(p.ProjectPeriodMonths)
		total += v
		b["ЖКУ"] = v
	}
	if p.IncludeNotary {
		total += p.NotaryFee
		b["Нотариус"] = p.NotaryFee
	}
	if p.IncludeStateFee {
		total += p.StateFee
		b["Госпошлина"] = p.StateFee
	}
	if p.IncludePIP {
		v := p.PIPPerSqm * areaTotal
		total += v
		b["ПИП"] = v
	}
	if p.IncludeAgency {
		total += p.AgencyFee
		b["Агентские"] = p.AgencyFee
	}
	if p.IncludeEviction {
		total += p.EvictionCost
		b["Выселение"] = p.EvictionCost
	}
	if p.IncludeRegistratorsTransfer {
		total += p.RegistratorsTransferFee
		b["Регистраторы (переход)"] = p.RegistratorsTransferFee
	}
	if p.IncludeRegistratorsMortgage {
		total += p.RegistratorsMortgageFee
		b["Регистраторы (ипотека)"] = p.RegistratorsMortgageFee
	}
	if p.IncludeConturRegistration {
		total += p.ConturRegistrationFee
		b["Регистрация Контур"] = p.ConturRegistrationFee
	}
	return total, b
}

func applyFinancing(p Params, interestPrice, fixedCosts float64, b breakdown) float64 {
	if !p.IncludeFinancing || p.FinancingRate <= 0 || interestPrice <= 0 {
		return fixedCosts
	}
	cost := interestPrice * p.FinancingRate / (1 - p.FinancingRate)
	b["Кредитование"] = cost
	return fixedCosts + cost
}

// renovationOutcome captures the shared "add renovation on top of the
// already-solved interest price" step every project type applies before
// computing profit.
type renovationOutcome struct {
	cost           float64
	hasCost        bool
	bonus          float64
	hasBonus       bool
	profit         float64
	hasProfit      bool
	finalSalePrice float64
	totalFixed     float64
}

func applyRenovation(p Params, areaTotal, baseSalePrice, fixedCostsNoReno float64, b breakdown) renovationOutcome {
	out := renovationOutcome{finalSalePrice: baseSalePrice, totalFixed: fixedCostsNoReno}
	if !p.IncludeRenovation {
		return out
	}
	cost := p.RenovationPerSqm * areaTotal
	bonus := cost * p.renovationBonusMultiplier()
	out.cost, out.hasCost = cost, true
	out.bonus, out.hasBonus = bonus, true
	out.finalSalePrice = baseSalePrice + bonus
	out.totalFixed += cost
	b["Ремонт"] = cost
	out.profit, out.hasProfit = bonus-cost, true
	if p.IncludeForeman {
		out.totalFixed += p.ForemanFee
		b["Прораб"] = p.ForemanFee
	}
	return out
}

// Result is the interest-price calculator's output, independent of
// valuation.ValuationResponse's shape so this package stays importable
// without pulling in the full response type's unrelated fields.
type Result struct {
	ProjectType ProjectType

	MarketPrice        float64
	MarketPricePerSqm  float64
	AreaTotal          float64

	SalePriceAfterRenovation *float64
	RenovationBonus          *float64

	InterestPrice       float64
	InterestPricePerSqm float64

	ExpectedSalePrice  float64
	ExpectedSalePerSqm float64

	TotalCosts     float64
	FixedCosts     float64
	VariableCosts  float64
	RenovationCost *float64

	ExpectedProfit  float64
	OurProfit       float64
	PartnerProfit   *float64

	ProfitRate        float64
	MonthlyProfitRate float64
	OurMonthlyRate    float64

	MortgageAmount         *float64
	MortgageMonthlyPayment *float64
	MortgageTotalInterest  *float64
	MortgagePrepayment     *float64
	MortgageIssueCost      *float64
	RenovationProfit       *float64

	ProjectMonths int
	CostBreakdown map[string]float64
}

// Calculate dispatches to the project-type-specific formula, matching
// calculate_interest_price's branch.
func Calculate(projectType ProjectType, marketPrice, areaTotal float64, params Params) (Result, error) {
	switch projectType {
	case ProjectPartner:
		return calculatePartner(marketPrice, areaTotal, params)
	case ProjectPartnerFlip:
		return calculatePartnerFlip(marketPrice, areaTotal, params)
	case ProjectBankFlip:
		return calculateBankFlip(marketPrice, areaTotal, params)
	default:
		return calculateOwn(marketPrice, areaTotal, params)
	}
}

func calculateOwn(marketPrice, areaTotal float64, p Params) (Result, error) {
	marketPricePerSqm := marketPrice / areaTotal
	baseSalePrice := marketPrice * (1 - p.BargainDiscount)

	fixedNoReno, b := fixedCostsNoRenovation(p, areaTotal)

	targetRate := p.MonthlyRate * float64(p.ProjectPeriodMonths)
	afterTaxRate := 1 - p.TaxRate
	multiplierExpense := 1 + targetRate
	divisor := afterTaxRate + targetRate

	interestPrice := (baseSalePrice*afterTaxRate - fixedNoReno*multiplierExpense) / divisor

	if p.IncludeFinancing && p.FinancingRate > 0 {
		fixedNoReno = applyFinancing(p, interestPrice, fixedNoReno, b)
		interestPrice = (baseSalePrice*afterTaxRate - fixedNoReno*multiplierExpense) / divisor
	}

	if interestPrice <= 0 {
		return Result{}, valuation.CostsExceedTarget(interestPrice, b)
	}

	reno := applyRenovation(p, areaTotal, baseSalePrice, fixedNoReno, b)

	grossProfit := reno.finalSalePrice - interestPrice
	taxAmount := grossProfit * p.TaxRate
	expectedProfit := grossProfit - reno.totalFixed - taxAmount
	b["Налог 6%"] = taxAmount

	totalInvestment := interestPrice + reno.totalFixed
	actualProfitRate := 0.0
	if totalInvestment > 0 {
		actualProfitRate = expectedProfit / totalInvestment
	}
	monthlyProfitRate := actualProfitRate / float64(p.ProjectPeriodMonths)

	res := Result{
		ProjectType:         ProjectOwn,
		MarketPrice:         marketPrice,
		MarketPricePerSqm:   marketPricePerSqm,
		AreaTotal:           areaTotal,
		InterestPrice:       interestPrice,
		InterestPricePerSqm: interestPrice / areaTotal,
		ExpectedSalePrice:   reno.finalSalePrice,
		ExpectedSalePerSqm:  reno.finalSalePrice / areaTotal,
		TotalCosts:          reno.totalFixed + taxAmount,
		FixedCosts:          reno.totalFixed,
		VariableCosts:       taxAmount,
		ExpectedProfit:      expectedProfit,
		OurProfit:           expectedProfit,
		ProfitRate:          actualProfitRate,
		MonthlyProfitRate:   monthlyProfitRate,
		OurMonthlyRate:      monthlyProfitRate,
		ProjectMonths:       p.ProjectPeriodMonths,
		CostBreakdown:       b,
	}
	if p.IncludeRenovation {
		res.SalePriceAfterRenovation = &reno.finalSalePrice
	}
	if reno.hasBonus {
		res.RenovationBonus = &reno.bonus
	}
	if reno.hasCost {
		res.RenovationCost = &reno.cost
	}
	if reno.hasProfit {
		res.RenovationProfit = &reno.profit
	}
	return res, nil
}

func calculatePartner(marketPrice, areaTotal float64, p Params) (Result, error) {
	marketPricePerSqm := marketPrice / areaTotal
	baseSalePrice := marketPrice * (1 - p.BargainDiscount)

	fixedNoReno, b := fixedCostsNoRenovation(p, areaTotal)

	afterTaxRate := 1 - p.TaxRate
	baseTarget := p.MonthlyRate * float64(p.ProjectPeriodMonths)
	multiplierExpense := 1 + baseTarget
	divisor := afterTaxRate + baseTarget

	interestPrice := (baseSalePrice*afterTaxRate - fixedNoReno*multiplierExpense) / divisor

	if p.IncludeFinancing && p.FinancingRate > 0 {
		fixedNoReno = applyFinancing(p, interestPrice, fixedNoReno, b)
		interestPrice = (baseSalePrice*afterTaxRate - fixedNoReno*multiplierExpense) / divisor
	}

	totalInvestmentNoReno := interestPrice + fixedNoReno
	minOurProfit := totalInvestmentNoReno * p.MonthlyRate * float64(p.ProjectPeriodMonths)

	if p.ProjectPeriodMonths < 3 && minOurProfit < p.MinProfit {
		minOurProfit = p.MinProfit
		interestPrice = baseSalePrice - (minOurProfit+fixedNoReno)/afterTaxRate
	}

	if interestPrice <= 0 {
		return Result{}, valuation.CostsExceedTarget(interestPrice, b)
	}

	reno := applyRenovation(p, areaTotal, baseSalePrice, fixedNoReno, b)

	grossProfit := reno.finalSalePrice - interestPrice
	taxAmount := grossProfit * p.TaxRate
	expectedProfit := grossProfit - reno.totalFixed - taxAmount
	b["Налог 6%"] = taxAmount

	totalInvestment := interestPrice + reno.totalFixed
	ourMinProfit := totalInvestment * p.MonthlyRate * float64(p.ProjectPeriodMonths)

	fiftyFifty := expectedProfit * (1 - p.PartnerSplit)
	var ourProfit, partnerProfit float64
	if fiftyFifty >= ourMinProfit {
		ourProfit = fiftyFifty
		partnerProfit = expectedProfit * p.PartnerSplit
	} else {
		ourProfit = ourMinProfit
		partnerProfit = maxFloat(0, expectedProfit-ourProfit)
	}

	actualProfitRate := 0.0
	ourMonthlyRate := 0.0
	if totalInvestment > 0 {
		actualProfitRate = expectedProfit / totalInvestment
		ourMonthlyRate = (ourProfit / totalInvestment) / float64(p.ProjectPeriodMonths)
	}
	monthlyProfitRate := actualProfitRate / float64(p.ProjectPeriodMonths)

	res := Result{
		ProjectType:         ProjectPartner,
		MarketPrice:         marketPrice,
		MarketPricePerSqm:   marketPricePerSqm,
		AreaTotal:           areaTotal,
		InterestPrice:       interestPrice,
		InterestPricePerSqm: interestPrice / areaTotal,
		ExpectedSalePrice:   reno.finalSalePrice,
		ExpectedSalePerSqm:  reno.finalSalePrice / areaTotal,
		TotalCosts:          reno.totalFixed + taxAmount,
		FixedCosts:          reno.totalFixed,
		VariableCosts:       taxAmount,
		ExpectedProfit:      expectedProfit,
		OurProfit:           ourProfit,
		PartnerProfit:       &partnerProfit,
		ProfitRate:          actualProfitRate,
		MonthlyProfitRate:   monthlyProfitRate,
		OurMonthlyRate:      ourMonthlyRate,
		ProjectMonths:       p.ProjectPeriodMonths,
		CostBreakdown:       b,
	}
	if p.IncludeRenovation {
		res.SalePriceAfterRenovation = &reno.finalSalePrice
	}
	if reno.hasBonus {
		res.RenovationBonus = &reno.bonus
	}
	if reno.hasCost {
		res.RenovationCost = &reno.cost
	}
	if reno.hasProfit {
		res.RenovationProfit = &reno.profit
	}
	return res, nil
}

func calculatePartnerFlip(marketPrice, areaTotal float64, p Params) (Result, error) {
	marketPricePerSqm := marketPrice / areaTotal
	baseSalePrice := marketPrice * (1 - p.BargainDiscount)

	fixedNoReno, b := fixedCostsNoRenovation(p, areaTotal)

	afterTaxRate := 1 - p.TaxRate
	baseTarget := p.MonthlyRate * float64(p.ProjectPeriodMonths)
	multiplierExpense := 1 + baseTarget
	divisor := afterTaxRate + baseTarget

	interestPrice := (baseSalePrice*afterTaxRate - fixedNoReno*multiplierExpense) / divisor

	if p.IncludeFinancing && p.FinancingRate > 0 {
		fixedNoReno = applyFinancing(p, interestPrice, fixedNoReno, b)
		interestPrice = (baseSalePrice*afterTaxRate - fixedNoReno*multiplierExpense) / divisor
	}

	if interestPrice <= 0 {
		return Result{}, valuation.CostsExceedTarget(interestPrice, b)
	}

	reno := applyRenovation(p, areaTotal, baseSalePrice, fixedNoReno, b)

	grossProfit := reno.finalSalePrice - interestPrice
	taxAmount := grossProfit * p.TaxRate
	expectedProfit := grossProfit - reno.totalFixed - taxAmount
	b["Налог 6%"] = taxAmount

	totalInvestment := interestPrice + reno.totalFixed
	ourMinProfit := totalInvestment * p.MonthlyRate * float64(p.ProjectPeriodMonths)

	fiftyFifty := expectedProfit * (1 - p.PartnerSplit)
	var ourProfit, partnerProfit float64
	if fiftyFifty >= ourMinProfit {
		ourProfit = fiftyFifty
		partnerProfit = expectedProfit * p.PartnerSplit
	} else {
		ourProfit = ourMinProfit
		partnerProfit = maxFloat(0, expectedProfit-ourProfit)
	}

	actualProfitRate := 0.0
	ourMonthlyRate := 0.0
	if totalInvestment > 0 {
		actualProfitRate = expectedProfit / totalInvestment
		ourMonthlyRate = (ourProfit / totalInvestment) / float64(p.ProjectPeriodMonths)
	}
	monthlyProfitRate := actualProfitRate / float64(p.ProjectPeriodMonths)

	res := Result{
		ProjectType:         ProjectPartnerFlip,
		MarketPrice:         marketPrice,
		MarketPricePerSqm:   marketPricePerSqm,
		AreaTotal:           areaTotal,
		InterestPrice:       interestPrice,
		InterestPricePerSqm: interestPrice / areaTotal,
		ExpectedSalePrice:   reno.finalSalePrice,
		ExpectedSalePerSqm:  reno.finalSalePrice / areaTotal,
		TotalCosts:          reno.totalFixed + taxAmount,
		FixedCosts:          reno.totalFixed,
		VariableCosts:       taxAmount,
		ExpectedProfit:      expectedProfit,
		OurProfit:           ourProfit,
		PartnerProfit:       &partnerProfit,
		ProfitRate:          actualProfitRate,
		MonthlyProfitRate:   monthlyProfitRate,
		OurMonthlyRate:      ourMonthlyRate,
		ProjectMonths:       p.ProjectPeriodMonths,
		CostBreakdown:       b,
	}
	if p.IncludeRenovation {
		res.SalePriceAfterRenovation = &reno.finalSalePrice
	}
	if reno.hasBonus {
		res.RenovationBonus = &reno.bonus
	}
	if reno.hasCost {
		res.RenovationCost = &reno.cost
	}
	if reno.hasProfit {
		res.RenovationProfit = &reno.profit
	}
	return res, nil
}

// bankFlipInitialTargetRate is the hardcoded 24% target spec.md §9 records
// as independent of project_months, pending product clarification.
const bankFlipInitialTargetRate = 0.24

func calculateBankFlip(marketPrice, areaTotal float64, p Params) (Result, error) {
	marketPricePerSqm := marketPrice / areaTotal
	baseSalePrice := marketPrice * (1 - p.BargainDiscount)

	fixedNoReno, b := fixedCostsNoRenovation(p, areaTotal)

	afterTaxRate := 1 - p.TaxRate
	divisor := afterTaxRate + bankFlipInitialTargetRate
	interestPrice := (baseSalePrice*afterTaxRate - fixedNoReno*(1+bankFlipInitialTargetRate)) / divisor

	if interestPrice <= 0 {
		return Result{}, valuation.CostsExceedTarget(interestPrice, b)
	}

	mortgageAmount := interestPrice * p.LTV
	mortgageMonthly := mortgageAmount * p.MortgageRate
	mortgageTotalInterest := mortgageMonthly * float64(p.ProjectPeriodMonths)
	mortgagePrepayment := mortgageMonthly * float64(p.MortgagePrepayMonths)
	mortgageIssue := mortgageAmount * p.MortgageIssueFee

	fixedNoReno += mortgageTotalInterest
	b["Проценты по ипотеке"] = mortgageTotalInterest
	fixedNoReno += mortgageIssue
	b["Комиссия за выдачу"] = mortgageIssue

	reno := applyRenovation(p, areaTotal, baseSalePrice, fixedNoReno, b)

	grossProfit := reno.finalSalePrice - interestPrice
	taxAmount := grossProfit * p.TaxRate
	expectedProfit := grossProfit - reno.totalFixed - taxAmount
	b["Налог 6%"] = taxAmount

	totalInvestment := interestPrice + reno.totalFixed
	// Our floor is 2%/month of total investment (the mortgage rate), not
	// the 4%/month used by the non-bank project types.
	ourMinProfit := totalInvestment * p.MortgageRate * float64(p.ProjectPeriodMonths)

	var ourProfit, partnerProfit float64
	if reno.hasProfit && reno.profit != 0 {
		profitToSplit := expectedProfit - reno.profit
		fiftyFifty := profitToSplit * (1 - p.PartnerSplit)
		if fiftyFifty+reno.profit >= ourMinProfit {
			partnerProfit = profitToSplit * p.PartnerSplit
			ourProfit = fiftyFifty + reno.profit
		} else {
			ourProfit = ourMinProfit
			partnerProfit = maxFloat(0, expectedProfit-ourProfit)
		}
	} else {
		fiftyFifty := expectedProfit * (1 - p.PartnerSplit)
		if fiftyFifty >= ourMinProfit {
			ourProfit = fiftyFifty
			partnerProfit = expectedProfit * p.PartnerSplit
		} else {
			ourProfit = ourMinProfit
			partnerProfit = maxFloat(0, expectedProfit-ourProfit)
		}
	}

	actualProfitRate := 0.0
	ourMonthlyRate := 0.0
	if totalInvestment > 0 {
		actualProfitRate = expectedProfit / totalInvestment
		ourMonthlyRate = (ourProfit / totalInvestment) / float64(p.ProjectPeriodMonths)
	}
	monthlyProfitRate := actualProfitRate / float64(p.ProjectPeriodMonths)

	res := Result{
		ProjectType:            ProjectBankFlip,
		MarketPrice:            marketPrice,
		MarketPricePerSqm:      marketPricePerSqm,
		AreaTotal:              areaTotal,
		InterestPrice:          interestPrice,
		InterestPricePerSqm:    interestPrice / areaTotal,
		ExpectedSalePrice:      reno.finalSalePrice,
		ExpectedSalePerSqm:     reno.finalSalePrice / areaTotal,
		TotalCosts:             reno.totalFixed + taxAmount,
		FixedCosts:             reno.totalFixed,
		VariableCosts:          taxAmount,
		ExpectedProfit:         expectedProfit,
		OurProfit:              ourProfit,
		PartnerProfit:          &partnerProfit,
		ProfitRate:             actualProfitRate,
		MonthlyProfitRate:      monthlyProfitRate,
		OurMonthlyRate:         ourMonthlyRate,
		MortgageAmount:         &mortgageAmount,
		MortgageMonthlyPayment: &mortgageMonthly,
		MortgageTotalInterest:  &mortgageTotalInterest,
		MortgagePrepayment:     &mortgagePrepayment,
		MortgageIssueCost:      &mortgageIssue,
		ProjectMonths:          p.ProjectPeriodMonths,
		CostBreakdown:          b,
	}
	if p.IncludeRenovation {
		res.SalePriceAfterRenovation = &reno.finalSalePrice
	}
	if reno.hasBonus {
		res.RenovationBonus = &reno.bonus
	}
	if reno.hasCost {
		res.RenovationCost = &reno.cost
	}
	if reno.hasProfit {
		res.RenovationProfit = &reno.profit
	}
	return res, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// FinishLevel is the renovation quality bucket the cost estimator prices.
type FinishLevel string

const (
	FinishCosmetic FinishLevel = "cosmetic"
	FinishStandard FinishLevel = "standard"
	FinishDesigner FinishLevel = "designer"
)

// renovationCostPerSqm is the per-sqm price table, bucketed by finish
// level, the estimator prices against (SPEC_FULL.md §4.10 supplement).
var renovationCostPerSqm = map[FinishLevel]float64{
	FinishCosmetic: 25_000,
	FinishStandard: 50_000,
	FinishDesigner: 90_000,
}

// preWarSurcharge is the +15% applied to buildings erected before 1970,
// whose plumbing/wiring riser replacement the estimate must absorb.
const preWarSurcharge = 1.15

// EstimateRenovationCost produces a ₽ renovation-cost estimate from a
// per-sqm table bucketed by finish level, with an age surcharge for
// buildings built before 1970. The four project-type calculators do not
// call it; they price renovation as Params.RenovationPerSqm times area. It
// never itself decides whether renovation is included.
func EstimateRenovationCost(areaTotal float64, buildingYear int, finish FinishLevel) float64 {
	perSqm, ok := renovationCostPerSqm[finish]
	if !ok {
		perSqm = renovationCostPerSqm[FinishStandard]
	}
	cost := perSqm * areaTotal
	if buildingYear > 0 && buildingYear < 1970 {
		cost *= preWarSurcharge
	}
	return cost
}
