package domain

import "github.com/feanalyst/fe-analyst/pkg/formulas"

// Snapshot is the read-only shared context for one composite run.
// It carries everything the analyzers may need, pre-fetched by the
// context builder. Analyzers retrieve what they need; absent data is
// reported via the failed-result variant, never via panics.
//
// Optional scalar fields are pointers: nil means "not available for
// this ticker", which is different from zero.
type Snapshot struct {
	Ticker string `json:"ticker" msgpack:"ticker"`

	// DailyCloses is ordered oldest to newest.
	DailyCloses []float64 `json:"daily_closes" msgpack:"daily_closes"`
	// DailyVolumes parallels DailyCloses; may be shorter or empty.
	DailyVolumes []float64 `json:"daily_volumes,omitempty" msgpack:"daily_volumes"`
	// MonthlyPrices is ordered oldest to newest.
	MonthlyPrices []formulas.MonthlyPrice `json:"monthly_prices,omitempty" msgpack:"monthly_prices"`

	Fundamentals *Fundamentals `json:"fundamentals,omitempty" msgpack:"fundamentals"`
	Analyst      *AnalystData  `json:"analyst,omitempty" msgpack:"analyst"`
	News         *NewsStats    `json:"news,omitempty" msgpack:"news"`
}

// Fundamentals holds the fundamental ratios used by the fundamental and
// valuation analyzers.
type Fundamentals struct {
	PERatio       *float64 `json:"pe_ratio,omitempty" msgpack:"pe_ratio"`
	ForwardPE     *float64 `json:"forward_pe,omitempty" msgpack:"forward_pe"`
	PriceToBook   *float64 `json:"price_to_book,omitempty" msgpack:"price_to_book"`
	ProfitMargin  *float64 `json:"profit_margin,omitempty" msgpack:"profit_margin"`
	DebtToEquity  *float64 `json:"debt_to_equity,omitempty" msgpack:"debt_to_equity"`
	CurrentRatio  *float64 `json:"current_ratio,omitempty" msgpack:"current_ratio"`
	DividendYield *float64 `json:"dividend_yield,omitempty" msgpack:"dividend_yield"`
}

// AnalystData holds analyst consensus data for the sentiment analyzer.
type AnalystData struct {
	// RecommendationScore is the buy/hold/sell consensus normalized to 0-1.
	RecommendationScore *float64 `json:"recommendation_score,omitempty" msgpack:"recommendation_score"`
	// TargetUpsidePct is the mean price target upside in percent.
	TargetUpsidePct *float64 `json:"target_upside_pct,omitempty" msgpack:"target_upside_pct"`
	NumAnalysts     int      `json:"num_analysts" msgpack:"num_analysts"`
}

// NewsStats holds aggregate news sentiment counters for the sentiment
// analyzer.
type NewsStats struct {
	// SentimentScore is the mean article sentiment normalized to 0-1.
	SentimentScore *float64 `json:"sentiment_score,omitempty" msgpack:"sentiment_score"`
	ArticleCount   int      `json:"article_count" msgpack:"article_count"`
}
