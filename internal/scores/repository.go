// Package scores persists composite score history.
package scores

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

// Record is one stored composite result
type Record struct {
	RunID          string                           `json:"run_id"`
	Ticker         string                           `json:"ticker"`
	CompositeScore float64                          `json:"composite_score"`
	Recommendation string                           `json:"recommendation"`
	PerAnalyzer    map[string]domain.AnalyzerResult `json:"per_analyzer"`
	ComputedAt     time.Time                        `json:"computed_at"`
}

// Repository provides access to the composite_scores table
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new scores repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "scores").Logger(),
	}
}

// InitSchema creates the composite_scores table if it does not exist
func (r *Repository) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS composite_scores (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL,
			ticker          TEXT NOT NULL,
			composite_score REAL NOT NULL,
			recommendation  TEXT NOT NULL,
			per_analyzer    TEXT NOT NULL,
			computed_at     INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_composite_scores_ticker
			ON composite_scores (ticker, computed_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create composite_scores table: %w", err)
	}
	return nil
}

// Store persists one composite result
func (r *Repository) Store(runID string, result *domain.CompositeResult) error {
	perAnalyzer, err := json.Marshal(result.PerAnalyzer)
	if err != nil {
		return fmt.Errorf("failed to marshal per-analyzer results: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO composite_scores
			(run_id, ticker, composite_score, recommendation, per_analyzer, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, result.Ticker, result.CompositeScore, string(result.Recommendation),
		string(perAnalyzer), result.ComputedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store composite score for %s: %w", result.Ticker, err)
	}

	return nil
}

// History returns up to limit stored results for a ticker, newest first
func (r *Repository) History(ticker string, limit int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT run_id, ticker, composite_score, recommendation, per_analyzer, computed_at
		FROM composite_scores
		WHERE ticker = ?
		ORDER BY computed_at DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// Latest returns the most recent stored result per ticker
func (r *Repository) Latest() ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT run_id, ticker, composite_score, recommendation, per_analyzer, computed_at
		FROM composite_scores
		WHERE id IN (
			SELECT MAX(id) FROM composite_scores GROUP BY ticker
		)
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest scores: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

func (r *Repository) scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var perAnalyzer string
		var computedAt int64

		if err := rows.Scan(&rec.RunID, &rec.Ticker, &rec.CompositeScore,
			&rec.Recommendation, &perAnalyzer, &computedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}

		if err := json.Unmarshal([]byte(perAnalyzer), &rec.PerAnalyzer); err != nil {
			// Corrupt row: keep the composite, log the detail loss
			r.log.Warn().Err(err).Str("ticker", rec.Ticker).Msg("Failed to decode per-analyzer details")
		}
		rec.ComputedAt = time.Unix(computedAt, 0).UTC()

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating score records: %w", err)
	}

	return out, nil
}
