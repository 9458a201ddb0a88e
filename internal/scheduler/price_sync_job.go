package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/clients/alphavantage"
	"github.com/feanalyst/fe-analyst/internal/marketdata"
	"github.com/feanalyst/fe-analyst/internal/universe"
)

// PriceSyncJob tops up the daily and monthly price history for the
// enabled universe from the market-data provider. It stops early when
// the provider's daily budget runs out; the remaining tickers catch up
// on the next run.
type PriceSyncJob struct {
	securities *universe.SecurityRepository
	history    *universe.HistoryDB
	client     *alphavantage.Client
	builder    *marketdata.Builder
	log        zerolog.Logger
}

// NewPriceSyncJob creates a new price sync job
func NewPriceSyncJob(
	securities *universe.SecurityRepository,
	history *universe.HistoryDB,
	client *alphavantage.Client,
	builder *marketdata.Builder,
	log zerolog.Logger,
) *PriceSyncJob {
	return &PriceSyncJob{
		securities: securities,
		history:    history,
		client:     client,
		builder:    builder,
		log:        log.With().Str("job", "price_sync").Logger(),
	}
}

// Name implements Job
func (j *PriceSyncJob) Name() string { return "price_sync" }

// Run implements Job
func (j *PriceSyncJob) Run() error {
	return j.RunContext(context.Background())
}

// RunContext syncs price history for every enabled security
func (j *PriceSyncJob) RunContext(ctx context.Context) error {
	securities, err := j.securities.ListEnabled()
	if err != nil {
		return fmt.Errorf("failed to list universe: %w", err)
	}

	synced := 0
	for _, sec := range securities {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("price sync cancelled: %w", err)
		}

		if err := j.syncOne(ctx, sec.Ticker); err != nil {
			var rateLimited alphavantage.ErrRateLimitExceeded
			if errors.As(err, &rateLimited) {
				j.log.Warn().
					Int("synced", synced).
					Int("remaining_tickers", len(securities)-synced).
					Msg("Provider budget exhausted, stopping sync early")
				break
			}
			j.log.Warn().Err(err).Str("ticker", sec.Ticker).Msg("Failed to sync prices")
			continue
		}
		synced++
	}

	if synced > 0 {
		// Cached snapshots are stale once new prices land
		j.builder.InvalidateCache()
	}

	j.log.Info().Int("synced", synced).Int("universe", len(securities)).Msg("Price sync finished")
	return nil
}

// syncOne fetches daily bars for one ticker and stores only those newer
// than what the history already holds, maintaining the monthly averages
// for the months those bars touch
func (j *PriceSyncJob) syncOne(ctx context.Context, ticker string) error {
	last, err := j.history.LatestDailyDate(ticker)
	if err != nil {
		return err
	}

	bars, err := j.client.GetDailySeries(ctx, ticker)
	if err != nil {
		return err
	}

	fresh := freshBars(bars, last)
	if len(fresh) == 0 {
		j.log.Debug().Str("ticker", ticker).Msg("Price history already up to date")
		return nil
	}

	touched := make(map[string]bool, 2)
	for _, bar := range fresh {
		volume := bar.Volume
		if err := j.history.UpsertDailyPrice(ticker, bar.Date, bar.Close, &volume); err != nil {
			return err
		}
		touched[bar.Date.Format("2006-01")] = true
	}

	// Monthly averages for touched months are recomputed over the whole
	// fetched batch, so a partially-stored month does not collapse to
	// the average of just its newest bars.
	type monthAgg struct {
		sum   float64
		count int
	}
	months := make(map[string]*monthAgg)

	for _, bar := range bars {
		ym := bar.Date.Format("2006-01")
		if !touched[ym] {
			continue
		}
		agg, ok := months[ym]
		if !ok {
			agg = &monthAgg{}
			months[ym] = agg
		}
		agg.sum += bar.Close
		agg.count++
	}

	for ym, agg := range months {
		if agg.count == 0 {
			continue
		}
		if err := j.history.UpsertMonthlyPrice(ticker, ym, agg.sum/float64(agg.count)); err != nil {
			return err
		}
	}

	return nil
}

// freshBars returns the bars strictly after since, preserving order.
// A nil since means no stored history, so everything is fresh.
func freshBars(bars []alphavantage.DailyBar, since *time.Time) []alphavantage.DailyBar {
	if since == nil {
		return bars
	}

	fresh := make([]alphavantage.DailyBar, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.After(*since) {
			fresh = append(fresh, bar)
		}
	}
	return fresh
}
