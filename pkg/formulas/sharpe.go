package formulas

import "math"

// SharpeRatio returns the annualized Sharpe ratio of a periodic return
// series: excess return over the periodic risk-free rate, divided by
// the standard deviation of the series. riskFreeRate is annual;
// periodsPerYear converts it (252 for daily, 12 for monthly).
//
// Nil when fewer than two returns exist or the series has zero
// variance, both of which leave the ratio undefined.
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	sd := StdDev(returns)
	if sd == 0 {
		return nil
	}

	return annualized(excessReturn(returns, riskFreeRate, periodsPerYear)/sd, periodsPerYear)
}

// SortinoRatio is the downside-only variant of SharpeRatio: the same
// excess return, divided by the deviation of only those periods that
// fell below the periodic MAR (targetReturn / periodsPerYear).
//
// Nil when no period fell below the MAR; a series that never dipped has
// no downside risk to measure.
func SortinoRatio(returns []float64, riskFreeRate float64, targetReturn float64, periodsPerYear int) *float64 {
	if len(returns) < 2 {
		return nil
	}

	dd := downsideDeviation(returns, targetReturn/float64(periodsPerYear))
	if dd == nil || *dd == 0 {
		return nil
	}

	return annualized(excessReturn(returns, riskFreeRate, periodsPerYear)/(*dd), periodsPerYear)
}

// excessReturn is the mean periodic return minus the periodic
// risk-free rate.
func excessReturn(returns []float64, riskFreeRate float64, periodsPerYear int) float64 {
	return Mean(returns) - riskFreeRate/float64(periodsPerYear)
}

// downsideDeviation is the root-mean-square of deviations below the
// periodic MAR. Nil when no return sits below it.
func downsideDeviation(returns []float64, periodicMAR float64) *float64 {
	var squaredSum float64
	count := 0

	for _, ret := range returns {
		if ret < periodicMAR {
			dev := ret - periodicMAR
			squaredSum += dev * dev
			count++
		}
	}

	if count == 0 {
		return nil
	}

	dd := math.Sqrt(squaredSum / float64(count))
	return &dd
}

// annualized scales a periodic risk-adjusted ratio by sqrt(periods).
func annualized(ratio float64, periodsPerYear int) *float64 {
	scaled := ratio * math.Sqrt(float64(periodsPerYear))
	return &scaled
}
