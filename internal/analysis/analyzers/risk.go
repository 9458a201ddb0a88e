package analyzers

import (
	"context"
	"math"

	"github.com/feanalyst/fe-analyst/internal/domain"
	"github.com/feanalyst/fe-analyst/pkg/formulas"
)

// Drawdown severity thresholds (fraction lost from peak).
const (
	DrawdownExcellent = 0.10
	DrawdownGood      = 0.20
	DrawdownOK        = 0.30
	DrawdownPoor      = 0.50
)

// Sharpe ratio quality thresholds.
const (
	SharpeExcellent = 2.0
	SharpeGood      = 1.0
	SharpeOK        = 0.5
)

// minDaysForRisk is the minimum daily history for risk metrics to mean
// anything.
const minDaysForRisk = 30

// riskFreeRate is the annual risk-free rate used for Sharpe/Sortino.
const riskFreeRate = 0.02

// RiskAnalyzer scores downside resilience: low volatility, shallow
// drawdowns, and strong risk-adjusted returns earn high scores.
//
// Components:
// - Max Drawdown (30%)
// - Annualized Volatility (25%)
// - Sortino Ratio (25%)
// - Sharpe Ratio (20%)
type RiskAnalyzer struct{}

// NewRiskAnalyzer creates a new risk analyzer
func NewRiskAnalyzer() *RiskAnalyzer {
	return &RiskAnalyzer{}
}

// Name implements domain.Analyzer.
func (ra *RiskAnalyzer) Name() string { return NameRisk }

// Analyze implements domain.Analyzer.
func (ra *RiskAnalyzer) Analyze(_ context.Context, _ string, snap *domain.Snapshot) domain.AnalyzerResult {
	if snap == nil || len(snap.DailyCloses) < minDaysForRisk {
		return domain.Unavailable("insufficient price history for risk metrics")
	}

	closes := snap.DailyCloses
	returns := formulas.Returns(closes)

	drawdownScore := scoreDrawdown(formulas.MaxDrawdown(closes))
	volScore := scoreVolatility(formulas.AnnualizedVolatility(returns))
	sharpeScore := scoreSharpe(formulas.SharpeRatio(returns, riskFreeRate, 252))
	sortinoScore := scoreSortino(formulas.SortinoRatio(returns, riskFreeRate, 0, 252))

	total := drawdownScore*0.30 + volScore*0.25 + sortinoScore*0.25 + sharpeScore*0.20
	total = math.Min(1.0, total)

	return domain.Scored(total*100, map[string]float64{
		"drawdown":   round3(drawdownScore),
		"volatility": round3(volScore),
		"sortino":    round3(sortinoScore),
		"sharpe":     round3(sharpeScore),
	})
}

// scoreDrawdown scores based on max drawdown severity.
// Lower drawdown = higher score (better resilience).
func scoreDrawdown(maxDrawdown *float64) float64 {
	if maxDrawdown == nil {
		return 0.5
	}

	ddPct := math.Abs(*maxDrawdown)

	if ddPct <= DrawdownExcellent {
		return 1.0
	} else if ddPct <= DrawdownGood {
		return 0.8 + (DrawdownGood-ddPct)*2
	} else if ddPct <= DrawdownOK {
		return 0.6 + (DrawdownOK-ddPct)*2
	} else if ddPct <= DrawdownPoor {
		return 0.2 + (DrawdownPoor-ddPct)*2
	}
	return math.Max(0.0, 0.2-(ddPct-DrawdownPoor))
}

// scoreVolatility scores annualized volatility.
// 15% or less is excellent for a single equity; 60%+ scores zero.
func scoreVolatility(vol float64) float64 {
	if vol <= 0 {
		return 0.5 // Flat series, likely stale data
	}

	if vol <= 0.15 {
		return 1.0
	} else if vol >= 0.60 {
		return 0.0
	}
	return 1.0 - (vol-0.15)/0.45
}

// scoreSharpe converts Sharpe ratio to score.
// Sharpe > 2.0 is excellent, > 1.0 is good.
func scoreSharpe(sharpeRatio *float64) float64 {
	if sharpeRatio == nil {
		return 0.5
	}

	sharpe := *sharpeRatio

	if sharpe >= SharpeExcellent {
		return 1.0
	} else if sharpe >= SharpeGood {
		return 0.7 + (sharpe-SharpeGood)*0.3
	} else if sharpe >= SharpeOK {
		return 0.4 + (sharpe-SharpeOK)*0.6
	} else if sharpe >= 0 {
		return sharpe * 0.8
	}
	return 0.0
}

// scoreSortino converts Sortino ratio to score.
// Sortino > 2.0 is excellent (focuses on downside risk).
func scoreSortino(sortinoRatio *float64) float64 {
	if sortinoRatio == nil {
		return 0.5
	}

	sortino := *sortinoRatio

	if sortino >= 2.0 {
		return 1.0
	} else if sortino >= 1.5 {
		return 0.8 + (sortino-1.5)*0.4
	} else if sortino >= 1.0 {
		return 0.6 + (sortino-1.0)*0.4
	} else if sortino >= 0.5 {
		return 0.4 + (sortino-0.5)*0.4
	} else if sortino >= 0 {
		return sortino * 0.8
	}
	return 0.0
}
