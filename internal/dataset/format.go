package dataset

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero to the given decimal places. NaN and Inf pass through.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatSequence renders an oscillator window as a list literal with one decimal per value,
// e.g. "[45.2, 50.1, 60.0]".
func FormatSequence(values []float64) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		parts = append(parts, decimal.NewFromFloat(v).Round(1).StringFixed(1))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
