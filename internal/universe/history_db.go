package universe

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/pkg/formulas"
)

// HistoryDB provides access to historical price data
type HistoryDB struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// DailyPrice represents a daily price point
type DailyPrice struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Close  float64 `json:"close"`
	Volume *int64  `json:"volume,omitempty"`
}

// InitSchema creates the price tables if they do not exist
func (h *HistoryDB) InitSchema() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_prices (
			ticker TEXT NOT NULL,
			date   INTEGER NOT NULL,
			close  REAL NOT NULL,
			volume INTEGER,
			PRIMARY KEY (ticker, date)
		);
		CREATE TABLE IF NOT EXISTS monthly_prices (
			ticker        TEXT NOT NULL,
			year_month    TEXT NOT NULL,
			avg_adj_close REAL NOT NULL,
			PRIMARY KEY (ticker, year_month)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create price tables: %w", err)
	}
	return nil
}

// UpsertDailyPrice stores one daily close
func (h *HistoryDB) UpsertDailyPrice(ticker string, date time.Time, close float64, volume *int64) error {
	_, err := h.db.Exec(`
		INSERT INTO daily_prices (ticker, date, close, volume)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			close = excluded.close,
			volume = excluded.volume
	`, ticker, date.UTC().Truncate(24*time.Hour).Unix(), close, volume)
	if err != nil {
		return fmt.Errorf("failed to upsert daily price for %s: %w", ticker, err)
	}
	return nil
}

// UpsertMonthlyPrice stores one monthly average
func (h *HistoryDB) UpsertMonthlyPrice(ticker, yearMonth string, avgAdjClose float64) error {
	_, err := h.db.Exec(`
		INSERT INTO monthly_prices (ticker, year_month, avg_adj_close)
		VALUES (?, ?, ?)
		ON CONFLICT(ticker, year_month) DO UPDATE SET
			avg_adj_close = excluded.avg_adj_close
	`, ticker, yearMonth, avgAdjClose)
	if err != nil {
		return fmt.Errorf("failed to upsert monthly price for %s: %w", ticker, err)
	}
	return nil
}

// GetDailyPrices fetches up to limit daily prices for a ticker, ordered
// oldest to newest
func (h *HistoryDB) GetDailyPrices(ticker string, limit int) ([]DailyPrice, error) {
	// Newest first in SQL, reversed below so callers get chronological order
	rows, err := h.db.Query(`
		SELECT date, close, volume
		FROM daily_prices
		WHERE ticker = ?
		ORDER BY date DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		var volume sql.NullInt64
		var dateUnix int64

		if err := rows.Scan(&dateUnix, &p.Close, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}

		p.Date = time.Unix(dateUnix, 0).UTC().Format("2006-01-02")
		if volume.Valid {
			p.Volume = &volume.Int64
		}

		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily prices: %w", err)
	}

	// Reverse to chronological order
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}

	return prices, nil
}

// GetMonthlyPrices fetches up to limit monthly averages for a ticker,
// ordered oldest to newest
func (h *HistoryDB) GetMonthlyPrices(ticker string, limit int) ([]formulas.MonthlyPrice, error) {
	rows, err := h.db.Query(`
		SELECT year_month, avg_adj_close
		FROM monthly_prices
		WHERE ticker = ?
		ORDER BY year_month DESC
		LIMIT ?
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly prices: %w", err)
	}
	defer rows.Close()

	var prices []formulas.MonthlyPrice
	for rows.Next() {
		var p formulas.MonthlyPrice
		if err := rows.Scan(&p.YearMonth, &p.AvgAdjClose); err != nil {
			return nil, fmt.Errorf("failed to scan monthly price: %w", err)
		}
		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly prices: %w", err)
	}

	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}

	return prices, nil
}

// LatestDailyDate returns the most recent stored date for a ticker, or
// nil when no history exists
func (h *HistoryDB) LatestDailyDate(ticker string) (*time.Time, error) {
	row := h.db.QueryRow(`
		SELECT MAX(date) FROM daily_prices WHERE ticker = ?
	`, ticker)

	var dateUnix sql.NullInt64
	if err := row.Scan(&dateUnix); err != nil {
		return nil, fmt.Errorf("failed to query latest daily date: %w", err)
	}
	if !dateUnix.Valid {
		return nil, nil
	}

	t := time.Unix(dateUnix.Int64, 0).UTC()
	return &t, nil
}
