package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

func TestFundamentalNoData(t *testing.T) {
	fa := NewFundamentalAnalyzer()

	result := fa.Analyze(context.Background(), "X", &domain.Snapshot{})
	assert.True(t, result.Failed())
	assert.Equal(t, domain.NeutralScore, result.Score)

	result = fa.Analyze(context.Background(), "X", nil)
	assert.True(t, result.Failed())
}

func TestFundamentalStrongCompany(t *testing.T) {
	fa := NewFundamentalAnalyzer()

	snap := &domain.Snapshot{
		Ticker: "AAPL",
		Fundamentals: &domain.Fundamentals{
			ProfitMargin: floatPtr(0.25), // 25% margin
			DebtToEquity: floatPtr(30),
			CurrentRatio: floatPtr(2.5),
		},
		// Steady compounding grower: 5y and 10y CAGR nearly identical.
		MonthlyPrices: monthlySeries(120, 100, 0.01),
	}

	result := fa.Analyze(context.Background(), "AAPL", snap)
	require.False(t, result.Failed())

	assert.Greater(t, result.Score, 75.0)
	assert.Contains(t, result.Details, "financial_strength")
	assert.Contains(t, result.Details, "consistency")
	assert.InDelta(t, 1.0, result.Details["consistency"], 1e-9)
}

func TestFundamentalWeakCompany(t *testing.T) {
	fa := NewFundamentalAnalyzer()

	snap := &domain.Snapshot{
		Ticker: "WEAK",
		Fundamentals: &domain.Fundamentals{
			ProfitMargin: floatPtr(-0.20), // Losing money
			DebtToEquity: floatPtr(250),   // Above the cap
			CurrentRatio: floatPtr(0.4),
		},
	}

	result := fa.Analyze(context.Background(), "WEAK", snap)
	require.False(t, result.Failed())
	assert.Less(t, result.Score, 45.0)
}

func TestFundamentalNewerStockNeutralConsistency(t *testing.T) {
	fa := NewFundamentalAnalyzer()

	// Only 3 years of history: no 10y CAGR, consistency falls back to 0.6.
	snap := &domain.Snapshot{
		Ticker: "IPO",
		Fundamentals: &domain.Fundamentals{
			ProfitMargin: floatPtr(0.10),
		},
		MonthlyPrices: monthlySeries(36, 50, 0.02),
	}

	result := fa.Analyze(context.Background(), "IPO", snap)
	require.False(t, result.Failed())
	assert.InDelta(t, 0.6, result.Details["consistency"], 1e-9)
}

func TestFinancialStrengthDefaults(t *testing.T) {
	// All nil inputs take the neutral-ish defaults.
	score := financialStrength(nil, nil, nil)
	assert.InDelta(t, 0.5*0.40+0.75*0.30+0.5*0.30, score, 1e-9)
}

func TestGrowthConsistency(t *testing.T) {
	assert.InDelta(t, 0.6, growthConsistency(0.10, nil), 1e-9)
	assert.InDelta(t, 1.0, growthConsistency(0.10, floatPtr(0.11)), 1e-9)
	assert.InDelta(t, 0.8, growthConsistency(0.10, floatPtr(0.14)), 1e-9)
	// Wildly divergent growth floors at 0.4.
	assert.InDelta(t, 0.4, growthConsistency(0.50, floatPtr(0.05)), 1e-9)
}
