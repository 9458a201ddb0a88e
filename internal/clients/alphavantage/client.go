// Package alphavantage implements the Alpha Vantage market-data client
// used to fill the history database and enrich snapshots with
// fundamentals and news sentiment.
//
// The free tier allows 25 requests per day, so the client tracks a
// daily budget and caches responses aggressively.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	baseURL       = "https://www.alphavantage.co/query"
	dailyLimit    = 25
	priceCacheTTL = 12 * time.Hour
	fundCacheTTL  = 24 * time.Hour
)

// ErrRateLimitExceeded is returned when the daily request budget is
// exhausted. Callers treat it as data-unavailable, not as fatal.
type ErrRateLimitExceeded struct {
	Remaining int
}

func (e ErrRateLimitExceeded) Error() string {
	return fmt.Sprintf("alpha vantage daily rate limit exceeded (%d requests remaining)", e.Remaining)
}

// Client is an Alpha Vantage API client with daily rate limiting and an
// in-memory TTL cache.
type Client struct {
	apiKey string
	client *http.Client
	log    zerolog.Logger

	mu           sync.Mutex
	requestsUsed int
	cache        map[string]cacheEntry
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:   log.With().Str("client", "alphavantage").Logger(),
		cache: make(map[string]cacheEntry),
	}
}

// GetRemainingRequests returns the remaining daily request budget
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dailyLimit - c.requestsUsed
}

// ResetDailyCounter resets the daily request budget (called by the
// scheduler at midnight UTC)
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestsUsed = 0
	c.log.Info().Msg("Daily request counter reset")
}

// checkRateLimit consumes one request from the daily budget
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.requestsUsed >= dailyLimit {
		return ErrRateLimitExceeded{Remaining: 0}
	}
	c.requestsUsed++
	return nil
}

// setCache stores a response with a TTL
func (c *Client) setCache(key string, data interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cacheEntry{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
}

// getFromCache retrieves a cached response if present and fresh
func (c *Client) getFromCache(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// ClearCache drops all cached responses
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

// DailyBar is one daily close from the TIME_SERIES_DAILY endpoint
type DailyBar struct {
	Date   time.Time
	Close  float64
	Volume int64
}

// GetDailySeries fetches recent daily bars for a ticker, oldest first
func (c *Client) GetDailySeries(ctx context.Context, ticker string) ([]DailyBar, error) {
	cacheKey := "daily:" + ticker
	if cached, ok := c.getFromCache(cacheKey); ok {
		return cached.([]DailyBar), nil
	}

	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)
	params.Set("outputsize", "compact")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Series map[string]struct {
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse daily series for %s: %w", ticker, err)
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("no daily series returned for %s", ticker)
	}

	bars := make([]DailyBar, 0, len(payload.Series))
	for dateStr, bar := range payload.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			continue
		}
		volume, _ := strconv.ParseInt(bar.Volume, 10, 64)
		bars = append(bars, DailyBar{Date: date, Close: closePrice, Volume: volume})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.setCache(cacheKey, bars, priceCacheTTL)
	return bars, nil
}

// Overview is the company overview payload with the fields the
// analyzers consume
type Overview struct {
	PERatio       *float64
	ForwardPE     *float64
	PriceToBook   *float64
	ProfitMargin  *float64
	DebtToEquity  *float64
	CurrentRatio  *float64
	DividendYield *float64
	AnalystTarget *float64
}

// GetOverview fetches company fundamentals for a ticker
func (c *Client) GetOverview(ctx context.Context, ticker string) (*Overview, error) {
	cacheKey := "overview:" + ticker
	if cached, ok := c.getFromCache(cacheKey); ok {
		return cached.(*Overview), nil
	}

	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "OVERVIEW")
	params.Set("symbol", ticker)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse overview for %s: %w", ticker, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no overview returned for %s", ticker)
	}

	overview := &Overview{
		PERatio:       parseFloat(raw, "PERatio"),
		ForwardPE:     parseFloat(raw, "ForwardPE"),
		PriceToBook:   parseFloat(raw, "PriceToBookRatio"),
		ProfitMargin:  parseFloat(raw, "ProfitMargin"),
		DebtToEquity:  parseFloat(raw, "DebtToEquityRatio"),
		CurrentRatio:  parseFloat(raw, "CurrentRatio"),
		DividendYield: parseFloat(raw, "DividendYield"),
		AnalystTarget: parseFloat(raw, "AnalystTargetPrice"),
	}

	c.setCache(cacheKey, overview, fundCacheTTL)
	return overview, nil
}

// NewsSentiment is the aggregate news tone for a ticker
type NewsSentiment struct {
	// Score is the mean article sentiment normalized to 0-1
	Score        float64
	ArticleCount int
}

// GetNewsSentiment fetches aggregate news sentiment for a ticker
func (c *Client) GetNewsSentiment(ctx context.Context, ticker string) (*NewsSentiment, error) {
	cacheKey := "news:" + ticker
	if cached, ok := c.getFromCache(cacheKey); ok {
		return cached.(*NewsSentiment), nil
	}

	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("tickers", ticker)
	params.Set("limit", "50")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Feed []struct {
			OverallSentimentScore float64 `json:"overall_sentiment_score"`
		} `json:"feed"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse news sentiment for %s: %w", ticker, err)
	}

	var sum float64
	for _, article := range payload.Feed {
		sum += article.OverallSentimentScore
	}

	result := &NewsSentiment{ArticleCount: len(payload.Feed)}
	if len(payload.Feed) > 0 {
		// Alpha Vantage scores run -1..1; normalize to 0..1
		mean := sum / float64(len(payload.Feed))
		result.Score = (mean + 1) / 2
	}

	c.setCache(cacheKey, result, priceCacheTTL)
	return result, nil
}

// get performs one API request
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

func parseFloat(raw map[string]string, key string) *float64 {
	value, ok := raw[key]
	if !ok || value == "" || value == "None" || value == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
