// Package domain contains the core analysis types shared across the
// application. The domain layer is pure: no infrastructure dependencies.
package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

// NeutralScore is the fixed score reported by an analyzer that could not
// compute a genuine result. Chosen so it neither helps nor hurts the
// composite.
const NeutralScore = 50.0

// AnalyzerResult is the output of one analyzer for one security.
// Score is always defined and always in [0, 100], even on failure.
type AnalyzerResult struct {
	Score   float64            `json:"score"`
	Details map[string]float64 `json:"details,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Scored builds a successful result, clamping the score into [0, 100].
func Scored(score float64, details map[string]float64) AnalyzerResult {
	return AnalyzerResult{
		Score:   ClampScore(score),
		Details: details,
	}
}

// Unavailable builds the neutral fallback result for an analyzer that
// could not compute a genuine score (missing data, timeout, crash).
func Unavailable(reason string) AnalyzerResult {
	return AnalyzerResult{
		Score: NeutralScore,
		Error: reason,
	}
}

// Failed reports whether this result is a neutral fallback rather than a
// genuine score.
func (r AnalyzerResult) Failed() bool {
	return r.Error != ""
}

// ClampScore clamps a score into the [0, 100] contract range.
func ClampScore(score float64) float64 {
	return math.Max(0, math.Min(100, score))
}

// CompositeResult is the output of one aggregation run for one ticker.
type CompositeResult struct {
	Ticker         string                    `json:"ticker"`
	CompositeScore float64                   `json:"composite_score"`
	PerAnalyzer    map[string]AnalyzerResult `json:"per_analyzer"`
	// Weights holds the renormalized weight each analyzer contributed.
	Weights        map[string]float64 `json:"weights"`
	Recommendation Recommendation     `json:"recommendation"`
	ComputedAt     time.Time          `json:"computed_at"`
}

// Analyzer is the single contract every scoring plugin implements.
// Analyze must not mutate the snapshot and must not panic for ordinary
// data-unavailability conditions; those are signaled via Unavailable().
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, ticker string, snap *Snapshot) AnalyzerResult
}

// ConfigError signals a malformed analyzer registry (duplicate name,
// negative weight, zero enabled analyzers). It aborts the whole
// aggregation run before any analyzer is invoked.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("analyzer configuration error: %s", e.Reason)
}
