// Package analyzers contains the five scoring plugins behind the
// domain.Analyzer contract. Each analyzer owns its heuristic entirely;
// they share nothing beyond the result type and the snapshot they read.
package analyzers

import (
	"math"

	"github.com/feanalyst/fe-analyst/internal/analysis"
	"github.com/feanalyst/fe-analyst/internal/domain"
)

// Registered analyzer names as they appear in configs/analyzers.yaml.
const (
	NameFundamental = "fundamental"
	NameValuation   = "valuation"
	NameTechnical   = "technical"
	NameRisk        = "risk"
	NameSentiment   = "sentiment"
)

// Factories returns the startup registration table mapping analyzer
// names to constructors. Explicit registration replaces dynamic loading;
// the registry wires these against the YAML specs.
func Factories(cfg Config) map[string]analysis.Factory {
	return map[string]analysis.Factory{
		NameFundamental: func() domain.Analyzer { return NewFundamentalAnalyzer() },
		NameValuation:   func() domain.Analyzer { return NewValuationAnalyzer(cfg.MarketAvgPE) },
		NameTechnical:   func() domain.Analyzer { return NewTechnicalAnalyzer() },
		NameRisk:        func() domain.Analyzer { return NewRiskAnalyzer() },
		NameSentiment:   func() domain.Analyzer { return NewSentimentAnalyzer() },
	}
}

// Config carries the analyzer tunables sourced from application config.
type Config struct {
	// MarketAvgPE is the market average P/E the valuation analyzer
	// compares against. Zero falls back to DefaultMarketAvgPE.
	MarketAvgPE float64
}

// DefaultMarketAvgPE is a long-run broad-market trailing P/E.
const DefaultMarketAvgPE = 20.0

// round3 rounds to 3 decimal places
func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// clamp01 clamps a unit-interval component score
func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
