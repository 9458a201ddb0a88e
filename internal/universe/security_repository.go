// Package universe manages the scan universe: the securities the
// platform analyzes and their price history.
package universe

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// Security is one entry in the scan universe
type Security struct {
	Ticker  string `json:"ticker"`
	Name    string `json:"name"`
	Sector  string `json:"sector,omitempty"`
	Enabled bool   `json:"enabled"`
}

// SecurityRepository provides access to the securities table
type SecurityRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSecurityRepository creates a new security repository
func NewSecurityRepository(db *sql.DB, log zerolog.Logger) *SecurityRepository {
	return &SecurityRepository{
		db:  db,
		log: log.With().Str("repo", "security").Logger(),
	}
}

// InitSchema creates the securities table if it does not exist
func (r *SecurityRepository) InitSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS securities (
			ticker  TEXT PRIMARY KEY,
			name    TEXT NOT NULL DEFAULT '',
			sector  TEXT NOT NULL DEFAULT '',
			enabled INTEGER NOT NULL DEFAULT 1
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create securities table: %w", err)
	}
	return nil
}

// Upsert inserts or updates a security
func (r *SecurityRepository) Upsert(sec Security) error {
	_, err := r.db.Exec(`
		INSERT INTO securities (ticker, name, sector, enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			enabled = excluded.enabled
	`, sec.Ticker, sec.Name, sec.Sector, boolToInt(sec.Enabled))
	if err != nil {
		return fmt.Errorf("failed to upsert security %s: %w", sec.Ticker, err)
	}
	return nil
}

// Get fetches one security by ticker
func (r *SecurityRepository) Get(ticker string) (*Security, error) {
	row := r.db.QueryRow(`
		SELECT ticker, name, sector, enabled
		FROM securities
		WHERE ticker = ?
	`, ticker)

	var sec Security
	var enabled int
	if err := row.Scan(&sec.Ticker, &sec.Name, &sec.Sector, &enabled); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get security %s: %w", ticker, err)
	}
	sec.Enabled = enabled != 0

	return &sec, nil
}

// ListEnabled returns the enabled securities ordered by ticker
func (r *SecurityRepository) ListEnabled() ([]Security, error) {
	rows, err := r.db.Query(`
		SELECT ticker, name, sector, enabled
		FROM securities
		WHERE enabled = 1
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled securities: %w", err)
	}
	defer rows.Close()

	return scanSecurities(rows)
}

// ListAll returns every security ordered by ticker
func (r *SecurityRepository) ListAll() ([]Security, error) {
	rows, err := r.db.Query(`
		SELECT ticker, name, sector, enabled
		FROM securities
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query securities: %w", err)
	}
	defer rows.Close()

	return scanSecurities(rows)
}

func scanSecurities(rows *sql.Rows) ([]Security, error) {
	var out []Security
	for rows.Next() {
		var sec Security
		var enabled int
		if err := rows.Scan(&sec.Ticker, &sec.Name, &sec.Sector, &enabled); err != nil {
			return nil, fmt.Errorf("failed to scan security: %w", err)
		}
		sec.Enabled = enabled != 0
		out = append(out, sec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating securities: %w", err)
	}

	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
