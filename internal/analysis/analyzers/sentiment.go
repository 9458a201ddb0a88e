package analyzers

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/feanalyst/fe-analyst/internal/domain"
)

// volumeWindow is the trailing window for relative-volume ranking.
const volumeWindow = 60

// SentimentAnalyzer scores market mood around a security.
//
// Components (renormalized over whatever is available):
// - Analyst opinion (50%): consensus rating plus price-target upside
// - News sentiment (30%): mean article sentiment
// - Relative volume (20%): percentile rank of the latest session's
//   volume in the trailing window - unusual attention moves the needle
//   mildly either way
type SentimentAnalyzer struct{}

// NewSentimentAnalyzer creates a new sentiment analyzer
func NewSentimentAnalyzer() *SentimentAnalyzer {
	return &SentimentAnalyzer{}
}

// Name implements domain.Analyzer.
func (sa *SentimentAnalyzer) Name() string { return NameSentiment }

// Analyze implements domain.Analyzer.
func (sa *SentimentAnalyzer) Analyze(_ context.Context, _ string, snap *domain.Snapshot) domain.AnalyzerResult {
	if snap == nil {
		return domain.Unavailable("no sentiment data")
	}

	details := map[string]float64{}
	var total, weight float64

	if opinion, ok := analystOpinion(snap.Analyst); ok {
		total += opinion * 0.50
		weight += 0.50
		details["analyst_opinion"] = round3(opinion)
	}

	if news, ok := newsTone(snap.News); ok {
		total += news * 0.30
		weight += 0.30
		details["news_sentiment"] = round3(news)
	}

	if volume, ok := relativeVolume(snap.DailyVolumes); ok {
		total += volume * 0.20
		weight += 0.20
		details["relative_volume"] = round3(volume)
	}

	if weight == 0 {
		return domain.Unavailable("no sentiment data")
	}

	return domain.Scored((total/weight)*100, details)
}

// analystOpinion combines consensus rating (60%) with price-target
// upside (40%), both normalized to 0-1.
func analystOpinion(a *domain.AnalystData) (float64, bool) {
	if a == nil || (a.RecommendationScore == nil && a.TargetUpsidePct == nil) {
		return 0, false
	}

	recScore := 0.5
	if a.RecommendationScore != nil {
		recScore = clamp01(*a.RecommendationScore)
	}

	// Target score: 0% upside = 0.5, 20%+ upside = 1.0, -20% = 0.0
	targetScore := 0.5
	if a.TargetUpsidePct != nil {
		upside := *a.TargetUpsidePct / 100
		targetScore = clamp01(0.5 + upside*2.5)
	}

	return recScore*0.60 + targetScore*0.40, true
}

// newsTone passes through the normalized article sentiment, requiring a
// minimum article count so a single headline cannot swing the score.
func newsTone(n *domain.NewsStats) (float64, bool) {
	const minArticles = 3

	if n == nil || n.SentimentScore == nil || n.ArticleCount < minArticles {
		return 0, false
	}

	return clamp01(*n.SentimentScore), true
}

// relativeVolume compares the latest session's volume against the
// trailing window and maps it into a mild 0.3-0.7 band centered on
// neutral. Heavy volume alone is attention, not direction.
func relativeVolume(volumes []float64) (float64, bool) {
	if len(volumes) < 10 {
		return 0, false
	}

	window := volumes
	if len(window) > volumeWindow {
		window = window[len(window)-volumeWindow:]
	}

	latest := window[len(window)-1]
	if latest <= 0 {
		return 0, false
	}

	median, err := stats.Median(window)
	if err != nil || median <= 0 {
		return 0, false
	}

	p90, err := stats.Percentile(window, 90)
	if err != nil {
		return 0, false
	}

	score := 0.5 + (latest/median-1)*0.2
	if latest >= p90 {
		// Attention spike
		score += 0.05
	}

	return math.Max(0.3, math.Min(0.7, score)), true
}
