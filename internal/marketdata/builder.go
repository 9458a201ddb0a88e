// Package marketdata assembles the read-only shared context analyzers
// consume. The builder owns data collection; the analysis core treats
// the result as an opaque bag.
package marketdata

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/domain"
	"github.com/feanalyst/fe-analyst/internal/universe"
)

// Daily history depth handed to the analyzers: enough for a 200-day SMA
// with a year of warmup.
const dailyHistoryDays = 500

// monthlyHistoryMonths covers the 10-year CAGR consistency check.
const monthlyHistoryMonths = 120

// FundamentalsSource supplies fundamental ratios and analyst data for a
// ticker. Implementations report missing coverage with nil, not errors.
// AnalystData receives the latest close so price targets can be
// expressed as upside; zero means no price history.
type FundamentalsSource interface {
	Fundamentals(ticker string) (*domain.Fundamentals, error)
	AnalystData(ticker string, lastClose float64) (*domain.AnalystData, error)
	NewsStats(ticker string) (*domain.NewsStats, error)
}

// Builder constructs snapshots from the history DB and the fundamentals
// source, with a TTL cache in front.
type Builder struct {
	history      *universe.HistoryDB
	fundamentals FundamentalsSource
	cache        *SnapshotCache
	log          zerolog.Logger
}

// NewBuilder creates a snapshot builder. fundamentals may be nil when no
// external source is configured; price-only snapshots still work and
// the fundamental/valuation/sentiment analyzers fall back to neutral.
func NewBuilder(history *universe.HistoryDB, fundamentals FundamentalsSource, log zerolog.Logger) *Builder {
	return &Builder{
		history:      history,
		fundamentals: fundamentals,
		cache:        NewSnapshotCache(15 * time.Minute),
		log:          log.With().Str("component", "snapshot_builder").Logger(),
	}
}

// Build assembles the shared context for one ticker. The returned
// snapshot is owned by the caller; nothing in it aliases builder state.
func (b *Builder) Build(ticker string) (*domain.Snapshot, error) {
	if cached, ok := b.cache.Get(ticker); ok {
		return cached, nil
	}

	daily, err := b.history.GetDailyPrices(ticker, dailyHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily prices for %s: %w", ticker, err)
	}

	monthly, err := b.history.GetMonthlyPrices(ticker, monthlyHistoryMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly prices for %s: %w", ticker, err)
	}

	snap := &domain.Snapshot{
		Ticker:        ticker,
		MonthlyPrices: monthly,
	}

	snap.DailyCloses = make([]float64, 0, len(daily))
	snap.DailyVolumes = make([]float64, 0, len(daily))
	for _, p := range daily {
		snap.DailyCloses = append(snap.DailyCloses, p.Close)
		if p.Volume != nil {
			snap.DailyVolumes = append(snap.DailyVolumes, float64(*p.Volume))
		}
	}

	// Fundamentals, analyst and news data are best-effort: a failed
	// lookup leaves the field nil and the affected analyzers report
	// data-unavailable on their own.
	if b.fundamentals != nil {
		if f, err := b.fundamentals.Fundamentals(ticker); err != nil {
			b.log.Debug().Err(err).Str("ticker", ticker).Msg("Fundamentals lookup failed")
		} else {
			snap.Fundamentals = f
		}

		var lastClose float64
		if n := len(snap.DailyCloses); n > 0 {
			lastClose = snap.DailyCloses[n-1]
		}
		if a, err := b.fundamentals.AnalystData(ticker, lastClose); err != nil {
			b.log.Debug().Err(err).Str("ticker", ticker).Msg("Analyst data lookup failed")
		} else {
			snap.Analyst = a
		}

		if n, err := b.fundamentals.NewsStats(ticker); err != nil {
			b.log.Debug().Err(err).Str("ticker", ticker).Msg("News stats lookup failed")
		} else {
			snap.News = n
		}
	}

	if err := b.cache.Put(snap); err != nil {
		b.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache snapshot")
	}

	return snap, nil
}

// InvalidateCache drops all cached snapshots, forcing rebuilds. Called
// after price syncs.
func (b *Builder) InvalidateCache() {
	b.cache.Clear()
}
