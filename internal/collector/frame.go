package collector

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"EventIndicators/internal/model"
)

// Frame is a provider-shaped table of bars: one timestamp per row and loosely labelled columns.
// Labels may repeat or be nested ("Close|NVDA", "('Close', 'NVDA')"); Normalize collapses them.
type Frame struct {
	Symbol  string
	Index   []time.Time
	Columns []string
	Values  [][]float64 // Values[row][column], NaN for missing cells
}

// baseLabel reduces a possibly nested column label to its lower-cased top level.
func baseLabel(label string) string {
	l := strings.TrimSpace(label)
	if strings.HasPrefix(l, "(") && strings.HasSuffix(l, ")") {
		l = strings.TrimSuffix(strings.TrimPrefix(l, "("), ")")
		if i := strings.Index(l, ","); i >= 0 {
			l = l[:i]
		}
		l = strings.Trim(strings.TrimSpace(l), `'"`)
	}
	if i := strings.IndexAny(l, "|/"); i >= 0 {
		l = l[:i]
	}
	return strings.ToLower(strings.TrimSpace(l))
}

// Normalize collapses a Frame into an ascending, timestamp-unique series.
// Each OHLCV field reads the first column whose top-level label matches.
func Normalize(f Frame) (model.Series, error) {
	if len(f.Index) == 0 {
		return model.Series{}, fmt.Errorf("%s: provider returned no rows: %w", f.Symbol, model.ErrDataUnavailable)
	}

	first := make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		l := baseLabel(c)
		if _, ok := first[l]; !ok {
			first[l] = i
		}
	}
	for _, req := range []string{"open", "high", "low"} {
		if _, ok := first[req]; !ok {
			return model.Series{}, fmt.Errorf("%s: missing %s column: %w", f.Symbol, req, model.ErrDataUnavailable)
		}
	}

	pick := func(row []float64, field string) float64 {
		i, ok := first[field]
		if !ok || i >= len(row) {
			return math.NaN()
		}
		return row[i]
	}

	bars := make([]model.OHLCV, 0, len(f.Index))
	for r, ts := range f.Index {
		var row []float64
		if r < len(f.Values) {
			row = f.Values[r]
		}
		b := model.OHLCV{
			Time:   ts,
			Open:   pick(row, "open"),
			High:   pick(row, "high"),
			Low:    pick(row, "low"),
			Close:  pick(row, "close"),
			Volume: pick(row, "volume"),
		}
		if math.IsNaN(b.Open) && math.IsNaN(b.High) && math.IsNaN(b.Low) && math.IsNaN(b.Close) {
			continue // null bar (holiday, halted minute)
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return model.Series{}, fmt.Errorf("%s: no usable bars: %w", f.Symbol, model.ErrDataUnavailable)
	}
	return model.Series{Symbol: f.Symbol, Bars: out}, nil
}
