package analyzers

import (
	"context"
	"math"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

// MaxValuationAdjustment caps the margin-of-safety contribution: the
// valuation score is the neutral 50 shifted by at most this many points
// in either direction.
const MaxValuationAdjustment = 35.0

// fairPriceToBook is the price/book treated as fairly valued.
const fairPriceToBook = 3.0

// ValuationAnalyzer scores cheapness versus fair-value multiples.
//
// Unlike the proportional analyzers this one works from a neutral base:
// 50 plus or minus a margin-of-safety adjustment derived from P/E
// and P/B versus their fair bands, capped at +/-MaxValuationAdjustment.
type ValuationAnalyzer struct {
	marketAvgPE float64
}

// NewValuationAnalyzer creates a valuation analyzer anchored to the
// given market average P/E.
func NewValuationAnalyzer(marketAvgPE float64) *ValuationAnalyzer {
	if marketAvgPE <= 0 {
		marketAvgPE = DefaultMarketAvgPE
	}
	return &ValuationAnalyzer{marketAvgPE: marketAvgPE}
}

// Name implements domain.Analyzer.
func (va *ValuationAnalyzer) Name() string { return NameValuation }

// Analyze implements domain.Analyzer.
func (va *ValuationAnalyzer) Analyze(_ context.Context, _ string, snap *domain.Snapshot) domain.AnalyzerResult {
	if snap == nil || snap.Fundamentals == nil {
		return domain.Unavailable("no valuation data")
	}

	peMargin, hasPE := va.peMarginOfSafety(snap.Fundamentals)
	pbMargin, hasPB := pbMarginOfSafety(snap.Fundamentals)

	if !hasPE && !hasPB {
		return domain.Unavailable("no valuation multiples available")
	}

	// Blend available margins: P/E carries more signal than P/B.
	var margin, weight float64
	details := map[string]float64{}
	if hasPE {
		margin += peMargin * 0.70
		weight += 0.70
		details["pe_margin"] = round3(peMargin)
	}
	if hasPB {
		margin += pbMargin * 0.30
		weight += 0.30
		details["pb_margin"] = round3(pbMargin)
	}
	margin /= weight

	adjustment := margin * 100
	adjustment = math.Max(-MaxValuationAdjustment, math.Min(MaxValuationAdjustment, adjustment))

	details["margin_of_safety"] = round3(margin)
	details["adjustment"] = round3(adjustment)

	return domain.Scored(domain.NeutralScore+adjustment, details)
}

// peMarginOfSafety measures discount to the market average P/E, blending
// trailing and forward P/E when both exist. Positive = cheap.
func (va *ValuationAnalyzer) peMarginOfSafety(f *domain.Fundamentals) (float64, bool) {
	if f.PERatio == nil || *f.PERatio <= 0 {
		return 0, false
	}

	effectivePE := *f.PERatio
	if f.ForwardPE != nil && *f.ForwardPE > 0 {
		effectivePE = (*f.PERatio + *f.ForwardPE) / 2
	}

	margin := (va.marketAvgPE - effectivePE) / va.marketAvgPE
	return math.Max(-1, math.Min(1, margin)), true
}

// pbMarginOfSafety measures discount to the fair price/book band.
// Positive = cheap.
func pbMarginOfSafety(f *domain.Fundamentals) (float64, bool) {
	if f.PriceToBook == nil || *f.PriceToBook <= 0 {
		return 0, false
	}

	margin := (fairPriceToBook - *f.PriceToBook) / fairPriceToBook
	return math.Max(-1, math.Min(1, margin)), true
}
