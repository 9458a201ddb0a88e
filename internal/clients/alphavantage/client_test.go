package alphavantage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitBudget(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	assert.Equal(t, dailyLimit, client.GetRemainingRequests())

	for i := 0; i < dailyLimit; i++ {
		require.NoError(t, client.checkRateLimit())
	}
	assert.Equal(t, 0, client.GetRemainingRequests())

	err := client.checkRateLimit()
	require.Error(t, err)

	var rateLimited ErrRateLimitExceeded
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 0, rateLimited.Remaining)
}

func TestResetDailyCounter(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	for i := 0; i < 10; i++ {
		require.NoError(t, client.checkRateLimit())
	}
	assert.Equal(t, dailyLimit-10, client.GetRemainingRequests())

	client.ResetDailyCounter()
	assert.Equal(t, dailyLimit, client.GetRemainingRequests())
}

func TestCacheRoundTrip(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	client.setCache("overview:AAPL", &Overview{}, time.Minute)

	cached, ok := client.getFromCache("overview:AAPL")
	require.True(t, ok)
	assert.NotNil(t, cached.(*Overview))

	_, ok = client.getFromCache("overview:MSFT")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	client.setCache("daily:AAPL", []DailyBar{}, 5*time.Millisecond)
	time.Sleep(15 * time.Millisecond)

	_, ok := client.getFromCache("daily:AAPL")
	assert.False(t, ok)
}

func TestClearCache(t *testing.T) {
	client := NewClient("test-key", zerolog.Nop())

	client.setCache("a", 1, time.Minute)
	client.setCache("b", 2, time.Minute)
	client.ClearCache()

	_, ok := client.getFromCache("a")
	assert.False(t, ok)
	_, ok = client.getFromCache("b")
	assert.False(t, ok)
}

func TestParseFloat(t *testing.T) {
	raw := map[string]string{
		"PERatio":       "28.5",
		"ForwardPE":     "None",
		"CurrentRatio":  "-",
		"ProfitMargin":  "",
		"DebtToEquity":  "not-a-number",
		"DividendYield": "0.0055",
	}

	pe := parseFloat(raw, "PERatio")
	require.NotNil(t, pe)
	assert.InDelta(t, 28.5, *pe, 1e-9)

	assert.Nil(t, parseFloat(raw, "ForwardPE"))
	assert.Nil(t, parseFloat(raw, "CurrentRatio"))
	assert.Nil(t, parseFloat(raw, "ProfitMargin"))
	assert.Nil(t, parseFloat(raw, "DebtToEquity"))
	assert.Nil(t, parseFloat(raw, "Missing"))

	dy := parseFloat(raw, "DividendYield")
	require.NotNil(t, dy)
	assert.InDelta(t, 0.0055, *dy, 1e-9)
}
