package analyzer

import (
	"errors"
	"math"
)

// ErrInsufficientData indicates that not enough data points were provided
// to calculate volatility (need at least 2 points for 1 return).
var ErrInsufficientData = errors.New("insufficient data points to calculate volatility")

// CalculateVolatility calculates the scaled historical volatility of a price path.
// Prices must be in chronological order, one per step.
// It uses logarithmic returns and the population standard deviation.
// The annualizationFactor is the number of steps per reporting period (1 for per-step volatility).
func CalculateVolatility(prices []float64, annualizationFactor float64) (float64, error) {
	n := len(prices)

	// --- Input Validation ---
	if n < 2 {
		return 0, ErrInsufficientData
	}

	// --- Calculate Logarithmic Returns ---
	logReturns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		current := prices[i]
		previous := prices[i-1]

		// Non-positive prices would break math.Log
		if previous <= 0 || current <= 0 {
			continue
		}
		logReturns = append(logReturns, math.Log(current/previous))
	}

	if len(logReturns) == 0 {
		return 0, ErrInsufficientData
	}

	// --- Standard Deviation of Log Returns ---
	_, stdDev := meanStd(logReturns)

	return stdDev * math.Sqrt(annualizationFactor), nil
}

// meanStd returns the mean and population standard deviation of values.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSqDiff float64
	for _, v := range values {
		sumSqDiff += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sumSqDiff / float64(len(values)))
}
