package analyzers

import (
	"context"

	"github.com/feanalyst/fe-analyst/internal/domain"
	"github.com/feanalyst/fe-analyst/pkg/formulas"
)

// TechnicalAnalyzer scores price action as the proportion of bullish
// signals among the indicator checks that could be evaluated for the
// available history. No single indicator dominates; the score is simply
// buy signals / evaluated signals.
type TechnicalAnalyzer struct{}

// NewTechnicalAnalyzer creates a new technical analyzer
func NewTechnicalAnalyzer() *TechnicalAnalyzer {
	return &TechnicalAnalyzer{}
}

// Name implements domain.Analyzer.
func (ta *TechnicalAnalyzer) Name() string { return NameTechnical }

// minEvaluatedSignals is the floor below which the proportion is too
// noisy to call a genuine score.
const minEvaluatedSignals = 2

// Analyze implements domain.Analyzer.
func (ta *TechnicalAnalyzer) Analyze(_ context.Context, _ string, snap *domain.Snapshot) domain.AnalyzerResult {
	if snap == nil || len(snap.DailyCloses) == 0 {
		return domain.Unavailable("no price history")
	}

	closes := snap.DailyCloses
	current := closes[len(closes)-1]

	details := map[string]float64{}
	evaluated := 0
	buys := 0

	record := func(name string, buy bool) {
		evaluated++
		if buy {
			buys++
			details[name] = 1
		} else {
			details[name] = 0
		}
	}

	// Price above 50-day SMA
	if sma50 := formulas.SMA(closes, 50); sma50 != nil {
		record("price_above_sma50", current > *sma50)

		// Golden structure: 50-day above 200-day
		if sma200 := formulas.SMA(closes, 200); sma200 != nil {
			record("sma50_above_sma200", *sma50 > *sma200)
		}
	}

	// Price above 20-day EMA; the EMA falls back to a plain mean on a
	// short series, so gate on the full period.
	if len(closes) >= 20 {
		if ema20 := formulas.EMA(closes, 20); ema20 != nil {
			record("price_above_ema20", current > *ema20)
		}
	}

	// Within 10% of the 52-week high. Needs a real window behind it or
	// the latest bar trivially is the high.
	if len(closes) >= 60 {
		if high := formulas.High52Week(closes); high != nil && *high > 0 {
			record("near_52w_high", current >= 0.90**high)
		}
	}

	// RSI in the healthy bullish band; overbought and deeply bearish
	// readings both count against.
	if rsi := formulas.RSI(closes, 14); rsi != nil {
		details["rsi"] = round3(*rsi)
		record("rsi_bullish", *rsi >= 40 && *rsi <= 70)
	}

	// MACD histogram positive = momentum building
	if hist := formulas.MACDHistogram(closes); hist != nil {
		record("macd_positive", *hist > 0)
	}

	// 30-day momentum positive
	if len(closes) >= 30 {
		price30d := closes[len(closes)-30]
		record("momentum_30d_positive", price30d > 0 && current > price30d)
	}

	if evaluated < minEvaluatedSignals {
		return domain.Unavailable("insufficient price history for technical signals")
	}

	proportion := float64(buys) / float64(evaluated)
	details["buy_signals"] = float64(buys)
	details["evaluated_signals"] = float64(evaluated)

	return domain.Scored(proportion*100, details)
}
