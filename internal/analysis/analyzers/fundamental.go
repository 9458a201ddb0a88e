package analyzers

import (
	"context"
	"math"

	"github.com/feanalyst/fe-analyst/internal/domain"
	"github.com/feanalyst/fe-analyst/pkg/formulas"
)

// FundamentalAnalyzer scores company health and stability.
//
// Components:
// - Financial Strength (60%): profit margin, debt/equity, current ratio
// - Consistency (40%): 5-year vs 10-year CAGR similarity
type FundamentalAnalyzer struct{}

// NewFundamentalAnalyzer creates a new fundamental analyzer
func NewFundamentalAnalyzer() *FundamentalAnalyzer {
	return &FundamentalAnalyzer{}
}

// Name implements domain.Analyzer.
func (fa *FundamentalAnalyzer) Name() string { return NameFundamental }

// Analyze implements domain.Analyzer.
func (fa *FundamentalAnalyzer) Analyze(_ context.Context, _ string, snap *domain.Snapshot) domain.AnalyzerResult {
	if snap == nil || (snap.Fundamentals == nil && len(snap.MonthlyPrices) == 0) {
		return domain.Unavailable("no fundamental data")
	}

	var profitMargin, debtToEquity, currentRatio *float64
	if snap.Fundamentals != nil {
		profitMargin = snap.Fundamentals.ProfitMargin
		debtToEquity = snap.Fundamentals.DebtToEquity
		currentRatio = snap.Fundamentals.CurrentRatio
	}

	financialScore := financialStrength(profitMargin, debtToEquity, currentRatio)

	// CAGR for growth consistency
	cagr5y := formulas.CAGR(snap.MonthlyPrices, 60)
	if cagr5y == nil && len(snap.MonthlyPrices) > 0 {
		cagr5y = formulas.CAGR(snap.MonthlyPrices, len(snap.MonthlyPrices))
	}

	var cagr10y *float64
	if len(snap.MonthlyPrices) > 60 {
		cagr10y = formulas.CAGR(snap.MonthlyPrices, len(snap.MonthlyPrices))
	}

	cagr5yValue := 0.0
	if cagr5y != nil {
		cagr5yValue = *cagr5y
	}

	consistencyScore := growthConsistency(cagr5yValue, cagr10y)

	// 60% financial strength, 40% consistency
	total := math.Min(1.0, financialScore*0.60+consistencyScore*0.40)

	return domain.Scored(total*100, map[string]float64{
		"financial_strength": round3(financialScore),
		"consistency":        round3(consistencyScore),
	})
}

// financialStrength scores financial health.
// Components: Profit Margin (40%), Debt/Equity (30%), Current Ratio (30%)
func financialStrength(profitMargin, debtToEquity, currentRatio *float64) float64 {
	// Profit margin (40%): Higher = better
	marginScore := 0.5
	if profitMargin != nil {
		margin := *profitMargin
		if margin >= 0 {
			marginScore = math.Min(1.0, 0.5+margin*2.5)
		} else {
			marginScore = math.Max(0, 0.5+margin*2)
		}
	}

	// Debt/Equity (30%): Lower = better (cap at 200)
	de := 50.0
	if debtToEquity != nil {
		de = math.Min(200, *debtToEquity)
	}
	deScore := math.Max(0, 1-de/200)

	// Current ratio (30%): Higher = better (cap at 3)
	cr := 1.0
	if currentRatio != nil {
		cr = math.Min(3, *currentRatio)
	}
	crScore := math.Min(1.0, cr/2)

	return marginScore*0.40 + deScore*0.30 + crScore*0.30
}

// growthConsistency scores CAGR consistency between 5y and 10y.
// Consistent growers (similar CAGR) score higher.
func growthConsistency(cagr5y float64, cagr10y *float64) float64 {
	if cagr10y == nil {
		return 0.6 // Neutral for newer stocks
	}

	diff := math.Abs(cagr5y - *cagr10y)

	if diff < 0.02 { // Within 2%
		return 1.0
	} else if diff < 0.05 { // Within 5%
		return 0.8
	}
	return math.Max(0.4, 1.0-diff*4)
}
