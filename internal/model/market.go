package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is an ascending, timestamp-unique run of bars for one ticker.
type Series struct {
	Symbol string
	Bars   []OHLCV
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series carries no bars.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Closes extracts the close prices in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high prices in order.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low prices in order.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volumes in order.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Times extracts the bar timestamps in order.
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Time
	}
	return out
}

// UpTo returns the bars whose trading date is on or before day.
func (s Series) UpTo(day time.Time) Series {
	return s.filter(func(t time.Time) bool { return !CivilDate(t).After(CivilDate(day)) })
}

// Before returns the bars whose trading date is strictly before day.
func (s Series) Before(day time.Time) Series {
	return s.filter(func(t time.Time) bool { return CivilDate(t).Before(CivilDate(day)) })
}

// On returns the bars whose trading date equals day.
func (s Series) On(day time.Time) Series {
	return s.filter(func(t time.Time) bool { return CivilDate(t).Equal(CivilDate(day)) })
}

func (s Series) filter(keep func(time.Time) bool) Series {
	out := Series{Symbol: s.Symbol}
	for _, b := range s.Bars {
		if keep(b.Time) {
			out.Bars = append(out.Bars, b)
		}
	}
	return out
}

// CivilDate strips the clock from t, keeping the calendar date as seen in t's own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
