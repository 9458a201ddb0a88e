package analyzers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

func TestValuationNoMultiples(t *testing.T) {
	va := NewValuationAnalyzer(20)

	result := va.Analyze(context.Background(), "X", &domain.Snapshot{})
	assert.True(t, result.Failed())

	// Fundamentals present but no usable multiples.
	result = va.Analyze(context.Background(), "X", &domain.Snapshot{
		Fundamentals: &domain.Fundamentals{
			ProfitMargin: floatPtr(0.1),
		},
	})
	assert.True(t, result.Failed())
	assert.Equal(t, domain.NeutralScore, result.Score)
}

func TestValuationCheapStock(t *testing.T) {
	va := NewValuationAnalyzer(20)

	// P/E of 10 vs market 20: 50% margin of safety.
	result := va.Analyze(context.Background(), "VAL", &domain.Snapshot{
		Fundamentals: &domain.Fundamentals{
			PERatio: floatPtr(10),
		},
	})
	require.False(t, result.Failed())

	// margin 0.5 -> adjustment capped at +35.
	assert.InDelta(t, 85.0, result.Score, 1e-9)
	assert.InDelta(t, 35.0, result.Details["adjustment"], 1e-9)
}

func TestValuationExpensiveStock(t *testing.T) {
	va := NewValuationAnalyzer(20)

	// P/E of 60 vs market 20: deeply negative margin, capped at -35.
	result := va.Analyze(context.Background(), "GROWTH", &domain.Snapshot{
		Fundamentals: &domain.Fundamentals{
			PERatio: floatPtr(60),
		},
	})
	require.False(t, result.Failed())
	assert.InDelta(t, 15.0, result.Score, 1e-9)
}

func TestValuationFairlyValued(t *testing.T) {
	va := NewValuationAnalyzer(20)

	result := va.Analyze(context.Background(), "FAIR", &domain.Snapshot{
		Fundamentals: &domain.Fundamentals{
			PERatio:     floatPtr(20),
			PriceToBook: floatPtr(3.0),
		},
	})
	require.False(t, result.Failed())
	assert.InDelta(t, 50.0, result.Score, 1e-9)
}

func TestValuationBlendsForwardPE(t *testing.T) {
	va := NewValuationAnalyzer(20)

	// Trailing 30, forward 10: effective P/E 20 = fairly valued on P/E.
	result := va.Analyze(context.Background(), "BLEND", &domain.Snapshot{
		Fundamentals: &domain.Fundamentals{
			PERatio:   floatPtr(30),
			ForwardPE: floatPtr(10),
		},
	})
	require.False(t, result.Failed())
	assert.InDelta(t, 50.0, result.Score, 1e-9)
}

func TestValuationPriceToBookOnly(t *testing.T) {
	va := NewValuationAnalyzer(20)

	// P/B of 1.5 vs fair 3.0: margin 0.5, adjustment capped at +35.
	result := va.Analyze(context.Background(), "BOOK", &domain.Snapshot{
		Fundamentals: &domain.Fundamentals{
			PriceToBook: floatPtr(1.5),
		},
	})
	require.False(t, result.Failed())
	assert.InDelta(t, 85.0, result.Score, 1e-9)
	assert.Contains(t, result.Details, "pb_margin")
	assert.NotContains(t, result.Details, "pe_margin")
}

func TestValuationIgnoresNegativePE(t *testing.T) {
	va := NewValuationAnalyzer(20)

	// Negative earnings: P/E is meaningless, falls through to P/B.
	result := va.Analyze(context.Background(), "LOSS", &domain.Snapshot{
		Fundamentals: &domain.Fundamentals{
			PERatio:     floatPtr(-15),
			PriceToBook: floatPtr(3.0),
		},
	})
	require.False(t, result.Failed())
	assert.InDelta(t, 50.0, result.Score, 1e-9)
}

func TestNewValuationAnalyzerDefaultsMarketPE(t *testing.T) {
	va := NewValuationAnalyzer(0)
	assert.InDelta(t, DefaultMarketAvgPE, va.marketAvgPE, 1e-9)
}
