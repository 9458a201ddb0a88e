package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/clients/alphavantage"
	"github.com/feanalyst/fe-analyst/internal/domain"
)

// AlphaVantageSource adapts the Alpha Vantage client to the
// FundamentalsSource interface.
type AlphaVantageSource struct {
	client *alphavantage.Client
	log    zerolog.Logger
}

// NewAlphaVantageSource creates the adapter
func NewAlphaVantageSource(client *alphavantage.Client, log zerolog.Logger) *AlphaVantageSource {
	return &AlphaVantageSource{
		client: client,
		log:    log.With().Str("component", "alphavantage_source").Logger(),
	}
}

// Fundamentals implements FundamentalsSource
func (s *AlphaVantageSource) Fundamentals(ticker string) (*domain.Fundamentals, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	overview, err := s.client.GetOverview(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return &domain.Fundamentals{
		PERatio:       overview.PERatio,
		ForwardPE:     overview.ForwardPE,
		PriceToBook:   overview.PriceToBook,
		ProfitMargin:  overview.ProfitMargin,
		DebtToEquity:  overview.DebtToEquity,
		CurrentRatio:  overview.CurrentRatio,
		DividendYield: overview.DividendYield,
	}, nil
}

// AnalystData implements FundamentalsSource. Alpha Vantage has no
// consensus-rating endpoint; coverage is limited to the overview's
// analyst target price, expressed as upside against the latest close.
// The overview is cached from the Fundamentals call, so this costs no
// extra request budget.
func (s *AlphaVantageSource) AnalystData(ticker string, lastClose float64) (*domain.AnalystData, error) {
	if lastClose <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	overview, err := s.client.GetOverview(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if overview.AnalystTarget == nil || *overview.AnalystTarget <= 0 {
		return nil, nil
	}

	upside := (*overview.AnalystTarget/lastClose - 1) * 100
	return &domain.AnalystData{
		TargetUpsidePct: &upside,
	}, nil
}

// NewsStats implements FundamentalsSource
func (s *AlphaVantageSource) NewsStats(ticker string) (*domain.NewsStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	news, err := s.client.GetNewsSentiment(ctx, ticker)
	if err != nil {
		return nil, err
	}

	score := news.Score
	return &domain.NewsStats{
		SentimentScore: &score,
		ArticleCount:   news.ArticleCount,
	}, nil
}
