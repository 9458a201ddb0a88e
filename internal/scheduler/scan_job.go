package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/analysis"
	"github.com/feanalyst/fe-analyst/internal/events"
	"github.com/feanalyst/fe-analyst/internal/marketdata"
	"github.com/feanalyst/fe-analyst/internal/scores"
	"github.com/feanalyst/fe-analyst/internal/universe"
)

// ScanJob runs the composite analysis over the whole enabled universe
// with a bounded worker pool, persisting results and publishing
// progress events.
type ScanJob struct {
	securities *universe.SecurityRepository
	builder    *marketdata.Builder
	aggregator *analysis.Aggregator
	scores     *scores.Repository
	bus        *events.Bus
	workers    int
	log        zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewScanJob creates a new universe scan job
func NewScanJob(
	securities *universe.SecurityRepository,
	builder *marketdata.Builder,
	aggregator *analysis.Aggregator,
	scoreRepo *scores.Repository,
	bus *events.Bus,
	workers int,
	log zerolog.Logger,
) *ScanJob {
	if workers <= 0 {
		workers = 4
	}
	return &ScanJob{
		securities: securities,
		builder:    builder,
		aggregator: aggregator,
		scores:     scoreRepo,
		bus:        bus,
		workers:    workers,
		log:        log.With().Str("job", "universe_scan").Logger(),
	}
}

// Name implements Job
func (j *ScanJob) Name() string { return "universe_scan" }

// Run implements Job
func (j *ScanJob) Run() error {
	return j.RunContext(context.Background())
}

// RunContext executes one full-universe scan. Only one scan runs at a
// time; overlapping triggers are rejected.
func (j *ScanJob) RunContext(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return fmt.Errorf("universe scan already running")
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	runID := uuid.New().String()

	securities, err := j.securities.ListEnabled()
	if err != nil {
		j.bus.Publish(events.ScanFailed, events.ScanFailedData{RunID: runID, Error: err.Error()})
		return fmt.Errorf("failed to list universe: %w", err)
	}

	if len(securities) == 0 {
		j.log.Warn().Msg("Universe is empty, nothing to scan")
		j.bus.Publish(events.ScanCompleted, events.ScanCompletedData{RunID: runID})
		return nil
	}

	j.log.Info().
		Str("run_id", runID).
		Int("tickers", len(securities)).
		Int("workers", j.workers).
		Msg("Starting universe scan")
	j.bus.Publish(events.ScanStarted, events.ScanStartedData{RunID: runID, Tickers: len(securities)})

	tickers := make(chan string)
	var completed, scored, skipped atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < j.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tickers {
				done := completed.Add(1)
				if err := j.scanOne(ctx, runID, ticker, int(done), len(securities)); err != nil {
					skipped.Add(1)
					j.log.Warn().Err(err).Str("ticker", ticker).Msg("Skipped ticker")
				} else {
					scored.Add(1)
				}
			}
		}()
	}

feed:
	for _, sec := range securities {
		select {
		case tickers <- sec.Ticker:
		case <-ctx.Done():
			break feed
		}
	}
	close(tickers)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		j.bus.Publish(events.ScanFailed, events.ScanFailedData{RunID: runID, Error: err.Error()})
		return fmt.Errorf("universe scan cancelled: %w", err)
	}

	j.log.Info().
		Str("run_id", runID).
		Int64("scored", scored.Load()).
		Int64("skipped", skipped.Load()).
		Msg("Universe scan completed")
	j.bus.Publish(events.ScanCompleted, events.ScanCompletedData{
		RunID:   runID,
		Scored:  int(scored.Load()),
		Skipped: int(skipped.Load()),
	})

	return nil
}

// scanOne analyzes and persists a single ticker
func (j *ScanJob) scanOne(ctx context.Context, runID, ticker string, completed, total int) error {
	snap, err := j.builder.Build(ticker)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	result, err := j.aggregator.Compute(ctx, ticker, snap)
	if err != nil {
		return fmt.Errorf("failed to compute composite: %w", err)
	}

	if err := j.scores.Store(runID, result); err != nil {
		return fmt.Errorf("failed to store composite: %w", err)
	}

	j.bus.Publish(events.TickerScored, events.TickerScoredData{
		RunID:          runID,
		Ticker:         ticker,
		CompositeScore: result.CompositeScore,
		Recommendation: string(result.Recommendation),
		Completed:      completed,
		Total:          total,
	})

	return nil
}
