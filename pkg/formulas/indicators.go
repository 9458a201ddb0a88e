package formulas

import (
	"github.com/markcheno/go-talib"
)

// RSI calculates the Relative Strength Index for the most recent bar.
//
// RSI Formula:
//   RSI = 100 - (100 / (1 + RS))
//   where RS = Average Gain / Average Loss over N periods
//
// Returns the current RSI value (0-100) or nil if insufficient data.
func RSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)

	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}

	return nil
}

// SMA calculates the Simple Moving Average for the most recent bar.
func SMA(closes []float64, length int) *float64 {
	if len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// EMA calculates the Exponential Moving Average for the most recent bar.
// Falls back to a simple mean when the series is shorter than the period.
func EMA(closes []float64, length int) *float64 {
	if len(closes) == 0 {
		return nil
	}

	if len(closes) < length {
		sma := Mean(closes)
		return &sma
	}

	ema := talib.Ema(closes, length)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	sma := Mean(closes[len(closes)-length:])
	return &sma
}

// MACDHistogram calculates the current MACD histogram value (MACD line minus
// signal line) using the standard 12/26/9 parameters.
// Positive histogram = bullish momentum building.
func MACDHistogram(closes []float64) *float64 {
	const (
		fastPeriod   = 12
		slowPeriod   = 26
		signalPeriod = 9
	)

	if len(closes) < slowPeriod+signalPeriod {
		return nil
	}

	_, _, hist := talib.Macd(closes, fastPeriod, slowPeriod, signalPeriod)
	if len(hist) > 0 && !isNaN(hist[len(hist)-1]) {
		result := hist[len(hist)-1]
		return &result
	}

	return nil
}

// High52Week returns the highest close over the trailing 252 trading days
// (or the whole series when shorter). Returns nil for empty input.
func High52Week(closes []float64) *float64 {
	if len(closes) == 0 {
		return nil
	}

	window := closes
	if len(window) > 252 {
		window = window[len(window)-252:]
	}

	high := window[0]
	for _, c := range window {
		if c > high {
			high = c
		}
	}

	return &high
}
