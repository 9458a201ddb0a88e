package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

// DefaultAnalyzerTimeout bounds a single analyzer invocation so one slow
// plugin cannot stall the whole composite run.
const DefaultAnalyzerTimeout = 10 * time.Second

// Aggregator combines the enabled analyzers' sub-scores into one
// composite score and recommendation. It is stateless across runs;
// each request is a single pass: dispatch, collect, renormalize, sum,
// classify.
type Aggregator struct {
	registry *Registry
	timeout  time.Duration
	log      zerolog.Logger
}

// NewAggregator creates an aggregator over a validated registry.
// A non-positive timeout falls back to DefaultAnalyzerTimeout.
func NewAggregator(registry *Registry, timeout time.Duration, log zerolog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultAnalyzerTimeout
	}
	return &Aggregator{
		registry: registry,
		timeout:  timeout,
		log:      log.With().Str("component", "aggregator").Logger(),
	}
}

// collected is one analyzer's contribution to a composite run.
type collected struct {
	spec   Spec
	result domain.AnalyzerResult
}

// Compute runs every enabled analyzer against the snapshot and folds the
// results into a CompositeResult.
//
// Analyzers run concurrently; the composite is order-independent because
// the weighted sum is commutative. Each invocation gets an independent
// timeout, and a panicking analyzer is converted to a neutral fallback
// for that one entry while the run continues. Cancelling ctx aborts the
// whole run and discards partial results.
func (a *Aggregator) Compute(ctx context.Context, ticker string, snap *domain.Snapshot) (*domain.CompositeResult, error) {
	enabled := a.registry.EnabledSpecs()
	if len(enabled) == 0 {
		return nil, &domain.ConfigError{Reason: "no analyzers enabled"}
	}

	results := make([]collected, len(enabled))

	var wg sync.WaitGroup
	for i, spec := range enabled {
		wg.Add(1)
		go func(i int, spec Spec) {
			defer wg.Done()
			results[i] = collected{
				spec:   spec,
				result: a.invoke(ctx, spec, ticker, snap),
			}
		}(i, spec)
	}
	wg.Wait()

	// Partial results are discarded on cancellation, never returned.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("composite run for %s cancelled: %w", ticker, err)
	}

	return a.fold(ticker, results), nil
}

// invoke runs one analyzer with an independent timeout and a panic
// boundary. It always produces a well-formed result: genuine score,
// neutral fallback on missing data, or neutral fallback on timeout or
// contract violation.
func (a *Aggregator) invoke(ctx context.Context, spec Spec, ticker string, snap *domain.Snapshot) domain.AnalyzerResult {
	analyzer, ok := a.registry.Analyzer(spec.Name)
	if !ok {
		// Registry validation makes this unreachable; guard anyway.
		return domain.Unavailable(fmt.Sprintf("analyzer %q not constructed", spec.Name))
	}

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resultCh := make(chan domain.AnalyzerResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				// Contract violation: analyzers must not panic for
				// ordinary conditions. Isolate it to this one entry.
				a.log.Error().
					Str("analyzer", spec.Name).
					Str("ticker", ticker).
					Interface("panic", rec).
					Msg("Analyzer panicked - contract violation, recording neutral fallback")
				resultCh <- domain.Unavailable(fmt.Sprintf("analyzer panic: %v", rec))
			}
		}()
		resultCh <- analyzer.Analyze(runCtx, ticker, snap)
	}()

	select {
	case result := <-resultCh:
		// Defend the [0,100] invariant against misbehaving plugins.
		result.Score = domain.ClampScore(result.Score)
		if result.Failed() {
			a.log.Debug().
				Str("analyzer", spec.Name).
				Str("ticker", ticker).
				Str("reason", result.Error).
				Msg("Analyzer fell back to neutral score")
		}
		return result
	case <-runCtx.Done():
		if ctx.Err() != nil {
			// Whole-run cancellation; Compute discards everything.
			return domain.Unavailable("run cancelled")
		}
		a.log.Warn().
			Str("analyzer", spec.Name).
			Str("ticker", ticker).
			Dur("timeout", a.timeout).
			Msg("Analyzer timed out")
		return domain.Unavailable("analyzer timeout")
	}
}

// fold renormalizes weights over the enabled set and computes the
// weighted composite. Neutral fallbacks participate like any other
// score: the fixed 50 contributes no pull toward buy or sell, and the
// score field is always well-defined.
func (a *Aggregator) fold(ticker string, results []collected) *domain.CompositeResult {
	var totalWeight float64
	for _, c := range results {
		totalWeight += c.spec.Weight
	}

	perAnalyzer := make(map[string]domain.AnalyzerResult, len(results))
	weights := make(map[string]float64, len(results))

	var composite float64
	for _, c := range results {
		var effective float64
		if totalWeight > 0 {
			effective = c.spec.Weight / totalWeight
		} else {
			// All-zero weights: equal contribution.
			effective = 1.0 / float64(len(results))
		}

		perAnalyzer[c.spec.Name] = c.result
		weights[c.spec.Name] = effective
		composite += effective * c.result.Score
	}

	// Safety net; inputs are clamped and weights sum to 1, so this only
	// matters if a future analyzer contract violates the range invariant.
	composite = domain.ClampScore(composite)

	recommendation := domain.Classify(composite)

	a.log.Debug().
		Str("ticker", ticker).
		Float64("composite", composite).
		Str("recommendation", string(recommendation)).
		Msg("Composite computed")

	return &domain.CompositeResult{
		Ticker:         ticker,
		CompositeScore: composite,
		PerAnalyzer:    perAnalyzer,
		Weights:        weights,
		Recommendation: recommendation,
		ComputedAt:     time.Now().UTC(),
	}
}
