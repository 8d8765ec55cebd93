package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
)

// ADX computes the Average Directional Index with simple rolling means at every smoothing stage.
//
// ATR, +DI and -DI need period bars; DX is then averaged over another period, so the first
// defined ADX sits at index 2*period-2. A zero ATR leaves DI undefined and a zero +DI+-DI leaves DX
// undefined; ADX is only defined over windows whose DX values are all defined.
func ADX(high, low, close []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	n := len(close)
	if len(high) != n || len(low) != n {
		return nil, errors.New("high, low and close must have equal length")
	}
	if n == 0 {
		return nil, nil
	}

	tr := talib.TRange(high, low, close)
	tr[0] = high[0] - low[0] // no previous close on the first bar

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	atr := RollingSMA(tr, period)
	plusSmooth := RollingSMA(plusDM, period)
	minusSmooth := RollingSMA(minusDM, period)

	dx := nanSlice(n)
	for i := range dx {
		if math.IsNaN(atr[i]) || nearZero(atr[i]) {
			continue
		}
		plusDI := 100 * math.Max(plusSmooth[i], 0) / atr[i]
		minusDI := 100 * math.Max(minusSmooth[i], 0) / atr[i]
		sum := plusDI + minusDI
		if nearZero(sum) {
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / sum
	}

	adx := RollingSMA(dx, period)
	for i, v := range adx {
		if !math.IsNaN(v) {
			adx[i] = clampPercent(v)
		}
	}
	return adx, nil
}
