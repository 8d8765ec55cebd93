package calculator

import (
	"errors"
	"math"
)

// RSI computes the simple-moving-average RSI over the given period, aligned to closes.
//
// The first price change is counted as no move, so the first defined value sits at index period-1.
// A window with no losses yields 100; a window with neither gains nor losses is undefined (NaN).
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}

	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}

	avgGain := RollingSMA(gains, period)
	avgLoss := RollingSMA(losses, period)

	out := nanSlice(n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		switch {
		case nearZero(l) && nearZero(g):
			// flat window, leave undefined
		case nearZero(l):
			out[i] = 100
		default:
			out[i] = clampPercent(100 - 100/(1+math.Max(g, 0)/l))
		}
	}
	return out, nil
}
