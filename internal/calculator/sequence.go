package calculator

import (
	"fmt"
	"math"
	"time"

	"EventIndicators/internal/model"
)

// OscillatorPeriod is the RSI/ADX smoothing period.
const OscillatorPeriod = 14

// SequenceHorizons are the trailing window lengths extracted per oscillator.
var SequenceHorizons = []int{5, 30, 120}

// Trailing returns the last k defined values whose trading date is on or before cutoff,
// oldest first. The result is shorter than k when history runs out.
func Trailing(values []float64, times []time.Time, cutoff time.Time, k int) []float64 {
	if k <= 0 {
		return nil
	}
	day := model.CivilDate(cutoff)
	defined := make([]float64, 0, len(values))
	for i, v := range values {
		if i >= len(times) || model.CivilDate(times[i]).After(day) {
			break
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		defined = append(defined, v)
	}
	if len(defined) > k {
		defined = defined[len(defined)-k:]
	}
	out := make([]float64, len(defined))
	copy(out, defined)
	return out
}

// Sequences holds the RSI and ADX trailing windows keyed by horizon.
type Sequences struct {
	RSI       map[int][]float64
	ADX       map[int][]float64
	Days      int // daily bars on or before the cutoff
	RSIPoints int // defined RSI values on or before the cutoff
	Warnings  []string
}

// ComputeSequences runs RSI and ADX over the daily series and cuts trailing windows as of cutoff.
// An empty shortest RSI window means nothing usable exists and is reported as an error.
func ComputeSequences(daily model.Series, cutoff time.Time) (*Sequences, error) {
	closes := daily.Closes()
	rsi, err := RSI(closes, OscillatorPeriod)
	if err != nil {
		return nil, err
	}
	adx, err := ADX(daily.Highs(), daily.Lows(), closes, OscillatorPeriod)
	if err != nil {
		return nil, err
	}
	times := daily.Times()

	seq := &Sequences{
		RSI:  make(map[int][]float64, len(SequenceHorizons)),
		ADX:  make(map[int][]float64, len(SequenceHorizons)),
		Days: daily.UpTo(cutoff).Len(),
	}
	longest := SequenceHorizons[len(SequenceHorizons)-1]
	seq.RSIPoints = len(Trailing(rsi, times, cutoff, len(rsi)))
	for _, k := range SequenceHorizons {
		seq.RSI[k] = Trailing(rsi, times, cutoff, k)
		seq.ADX[k] = Trailing(adx, times, cutoff, k)
	}

	if len(seq.RSI[SequenceHorizons[0]]) == 0 {
		return nil, fmt.Errorf("%s: no defined RSI on or before %s: %w",
			daily.Symbol, cutoff.Format("2006-01-02"), model.ErrInsufficientHistory)
	}
	if seq.Days < longest {
		seq.Warnings = append(seq.Warnings, fmt.Sprintf("only %d trading days on or before %s, fewer than %d",
			seq.Days, cutoff.Format("2006-01-02"), longest))
	}
	for _, k := range SequenceHorizons {
		if n := len(seq.ADX[k]); n < k {
			seq.Warnings = append(seq.Warnings, fmt.Sprintf("ADX %d-day window has %d points", k, n))
		}
	}
	return seq, nil
}
