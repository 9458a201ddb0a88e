package analyzers

import (
	"fmt"
	"math"

	"github.com/feanalyst/fe-analyst/pkg/formulas"
)

func floatPtr(f float64) *float64 { return &f }

// risingCloses builds a steady daily uptrend.
func risingCloses(days int, start, dailyGain float64) []float64 {
	closes := make([]float64, days)
	price := start
	for i := range closes {
		closes[i] = price
		price += dailyGain
	}
	return closes
}

// fallingCloses builds a steady daily downtrend, floored above zero.
func fallingCloses(days int, start, dailyLoss float64) []float64 {
	closes := make([]float64, days)
	price := start
	for i := range closes {
		closes[i] = price
		price = math.Max(1, price-dailyLoss)
	}
	return closes
}

// monthlySeries builds months of compounding monthly prices.
func monthlySeries(months int, start, monthlyGrowth float64) []formulas.MonthlyPrice {
	prices := make([]formulas.MonthlyPrice, months)
	price := start
	for i := range prices {
		prices[i] = formulas.MonthlyPrice{
			YearMonth:   fmt.Sprintf("2020-%02d", i%12+1),
			AvgAdjClose: price,
		}
		price *= 1 + monthlyGrowth
	}
	return prices
}
