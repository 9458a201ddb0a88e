package scores

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanalyst/fe-analyst/internal/database"
	"github.com/feanalyst/fe-analyst/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "scores.db"),
		Name: "scores",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, repo.InitSchema())
	return repo
}

func compositeFor(ticker string, score float64, at time.Time) *domain.CompositeResult {
	return &domain.CompositeResult{
		Ticker:         ticker,
		CompositeScore: score,
		PerAnalyzer: map[string]domain.AnalyzerResult{
			"technical": domain.Scored(score, map[string]float64{"rsi": 55}),
		},
		Weights:        map[string]float64{"technical": 1},
		Recommendation: domain.Classify(score),
		ComputedAt:     at,
	}
}

func TestStoreAndHistory(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Store("run-1", compositeFor("AAPL", 70, base)))
	require.NoError(t, repo.Store("run-2", compositeFor("AAPL", 55, base.Add(24*time.Hour))))

	history, err := repo.History("AAPL", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest first.
	assert.Equal(t, "run-2", history[0].RunID)
	assert.InDelta(t, 55.0, history[0].CompositeScore, 1e-9)
	assert.Equal(t, string(domain.Hold), history[0].Recommendation)
	assert.Equal(t, base.Add(24*time.Hour), history[0].ComputedAt)

	// Per-analyzer details survive the round trip.
	tech, ok := history[0].PerAnalyzer["technical"]
	require.True(t, ok)
	assert.InDelta(t, 55.0, tech.Score, 1e-9)
	assert.InDelta(t, 55.0, tech.Details["rsi"], 1e-9)
}

func TestHistoryLimit(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Store("run", compositeFor("AAPL", float64(50+i), base.Add(time.Duration(i)*time.Hour))))
	}

	history, err := repo.History("AAPL", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.InDelta(t, 54.0, history[0].CompositeScore, 1e-9)
	assert.InDelta(t, 53.0, history[1].CompositeScore, 1e-9)
}

func TestLatestOnePerTicker(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Store("run-1", compositeFor("AAPL", 70, base)))
	require.NoError(t, repo.Store("run-1", compositeFor("MSFT", 62, base)))
	require.NoError(t, repo.Store("run-2", compositeFor("AAPL", 48, base.Add(time.Hour))))

	latest, err := repo.Latest()
	require.NoError(t, err)
	require.Len(t, latest, 2)

	// Ordered by ticker, newest row per ticker.
	assert.Equal(t, "AAPL", latest[0].Ticker)
	assert.InDelta(t, 48.0, latest[0].CompositeScore, 1e-9)
	assert.Equal(t, "MSFT", latest[1].Ticker)
	assert.InDelta(t, 62.0, latest[1].CompositeScore, 1e-9)
}

func TestHistoryEmptyTicker(t *testing.T) {
	repo := newTestRepo(t)

	history, err := repo.History("NOPE", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
