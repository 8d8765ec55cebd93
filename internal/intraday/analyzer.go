// Package intraday extracts opening-session extrema from one day of 1-minute bars.
//
// Bars are addressed by position, not clock time: bar 0 is assumed to be the session open.
// The early window is bars [0,10), the mid window bars [10,90).
package intraday

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"EventIndicators/internal/collector"
	"EventIndicators/internal/model"
)

const (
	EarlyBars = 10
	MidEnd    = 90
)

// Prices is the intraday field group. Every field is independently nullable.
type Prices struct {
	Open          null.Float
	EarlyLow      null.Float
	MidHigh       null.Float
	LowBeforeHigh null.Float
	MidHighPos    int // index of MidHigh in the full series, -1 when undefined
	Minutes       int
	Warnings      []string
}

// Any reports whether at least one field is present.
func (p Prices) Any() bool {
	return p.Open.Valid || p.EarlyLow.Valid || p.MidHigh.Valid || p.LowBeforeHigh.Valid
}

// Compute partitions the bars by position and derives the intraday prices.
func Compute(bars []model.OHLCV) Prices {
	p := Prices{MidHighPos: -1, Minutes: len(bars)}
	if len(bars) == 0 {
		return p
	}

	p.Open = validFloat(bars[0].Open)

	early := bars[:min(EarlyBars, len(bars))]
	p.EarlyLow = validFloat(minLow(early))

	if len(bars) > EarlyBars {
		end := min(MidEnd, len(bars))
		high := math.Inf(-1)
		pos := -1
		for i := EarlyBars; i < end; i++ {
			if bars[i].High > high { // first maximum wins
				high = bars[i].High
				pos = i
			}
		}
		if pos >= 0 {
			p.MidHigh = null.FloatFrom(high)
			p.MidHighPos = pos
			if pos == EarlyBars {
				// high printed on the first mid-window bar: no pullback to measure
				p.LowBeforeHigh = null.FloatFrom(high)
			} else {
				p.LowBeforeHigh = validFloat(minLow(bars[EarlyBars : pos+1]))
			}
		}
	}

	if len(bars) < MidEnd {
		p.Warnings = append(p.Warnings, fmt.Sprintf("only %d minute bars, fewer than %d", len(bars), MidEnd))
	}
	return p
}

func minLow(bars []model.OHLCV) float64 {
	low := math.Inf(1)
	for _, b := range bars {
		if b.Low < low {
			low = b.Low
		}
	}
	return low
}

func validFloat(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// Analyzer fetches minute bars subject to the provider recency ceiling and computes Prices.
type Analyzer struct {
	Fetcher    collector.Fetcher
	Now        func() time.Time
	MaxAgeDays int
}

// NewAnalyzer creates an Analyzer with the provider's 7-day ceiling.
func NewAnalyzer(fetcher collector.Fetcher) *Analyzer {
	return &Analyzer{Fetcher: fetcher, Now: time.Now, MaxAgeDays: collector.MinuteRecencyDays}
}

// Analyze returns ErrDataUnavailable without touching the fetcher when day is past the ceiling.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, day time.Time) (Prices, error) {
	if !collector.WithinRecency(day, a.Now(), a.MaxAgeDays) {
		return Prices{}, fmt.Errorf("%s minute bars for %s are older than %d days: %w",
			symbol, day.Format("2006-01-02"), a.MaxAgeDays, model.ErrDataUnavailable)
	}
	series, err := a.Fetcher.FetchMinuteBars(ctx, symbol, day)
	if err != nil {
		return Prices{}, fmt.Errorf("fetch minute bars: %w", err)
	}
	if series.Empty() {
		return Prices{}, fmt.Errorf("%s: no minute bars: %w", symbol, model.ErrDataUnavailable)
	}
	p := Compute(series.Bars)
	if !p.Any() {
		return p, fmt.Errorf("%s: minute bars carry no prices: %w", symbol, model.ErrDataUnavailable)
	}
	return p, nil
}
