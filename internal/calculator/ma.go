package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sma := RollingSMA(prices[len(prices)-period:], period)
	return sma[len(sma)-1], nil
}

// RollingSMA returns the period-length simple rolling mean aligned to values.
// Index i is NaN until period observations exist, and whenever its window holds a NaN.
func RollingSMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	if !hasNaN(values) {
		sma := talib.Sma(values, period)
		copy(out[period-1:], sma[period-1:])
		return out
	}

	// talib keeps a running total, so a single NaN would poison every later window.
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for _, v := range values[i-period+1 : i+1] {
			if math.IsNaN(v) {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// nearZero absorbs the drift left by running-sum rolling means over windows of exact zeros.
func nearZero(v float64) bool {
	return math.Abs(v) < 1e-9
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
