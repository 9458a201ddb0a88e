package domain

// Recommendation is the discrete classification derived from fixed
// thresholds on the composite score.
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG BUY"
	Buy        Recommendation = "BUY"
	Hold       Recommendation = "HOLD"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG SELL"
)

// recommendationBand maps an inclusive lower bound to a label.
// Evaluated top-down, so the table is total over [0, 100] with no gaps.
type recommendationBand struct {
	Min   float64
	Label Recommendation
}

var recommendationBands = []recommendationBand{
	{75, StrongBuy},
	{60, Buy},
	{45, Hold},
	{30, Sell},
	{0, StrongSell},
}

// Classify maps a composite score to its recommendation label.
// Scores are clamped first, so classification is total even for inputs
// that violate the [0, 100] invariant.
func Classify(score float64) Recommendation {
	score = ClampScore(score)
	for _, band := range recommendationBands {
		if score >= band.Min {
			return band.Label
		}
	}
	return StrongSell
}
