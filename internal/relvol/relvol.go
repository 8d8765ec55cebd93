// Package relvol computes the relative-volume signal with a premarket-first, daily-volume fallback policy.
package relvol

import (
	"fmt"
	"math"
	"sort"
	"time"

	"EventIndicators/internal/calculator"
	"EventIndicators/internal/dataset"
	"EventIndicators/internal/model"
)

const (
	// HistoryDepth is how many prior premarket observations are averaged.
	HistoryDepth = 5
	// VolumeWindow is the trailing daily-volume mean length for the fallback.
	VolumeWindow = 5
)

type Source string

const (
	SourcePremarket Source = "premarket"
	SourceDaily     Source = "daily"
)

// Result is the relative-volume field group.
type Result struct {
	Ratio    float64
	Source   Source
	Points   int // observations behind the denominator
	Warnings []string
}

// FromPremarket divides current premarket volume by the mean of up to HistoryDepth prior positive
// premarket volumes of the same ticker, most recent first, strictly before eventDate.
func FromPremarket(current float64, ticker string, eventDate time.Time, history []model.Record, column string) (Result, error) {
	type point struct {
		date   time.Time
		volume float64
	}
	var points []point
	day := model.CivilDate(eventDate)
	for _, r := range history {
		if !r.Valid() || !model.SameTicker(r.Ticker, ticker) || !model.CivilDate(r.EventDate).Before(day) {
			continue
		}
		v, ok := dataset.ParseNumber(r.Cell(column))
		if !ok || v <= 0 {
			continue
		}
		points = append(points, point{date: r.EventDate, volume: v})
	}
	if len(points) == 0 {
		return Result{}, fmt.Errorf("%s: no prior premarket volume before %s: %w", ticker, day.Format("2006-01-02"), model.ErrInsufficientHistory)
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].date.After(points[j].date) })
	if len(points) > HistoryDepth {
		points = points[:HistoryDepth]
	}
	sum := 0.0
	for _, p := range points {
		sum += p.volume
	}
	avg := sum / float64(len(points))

	res := Result{Ratio: current / avg, Source: SourcePremarket, Points: len(points)}
	if len(points) < HistoryDepth {
		res.Warnings = append(res.Warnings, fmt.Sprintf("premarket average over %d of %d sessions", len(points), HistoryDepth))
	}
	return res, nil
}

// FromDaily divides the cutoff-day volume by the VolumeWindow-day mean ending on that day.
func FromDaily(daily model.Series, eventDate time.Time) (Result, error) {
	upTo := daily.UpTo(eventDate)
	if upTo.Len() < VolumeWindow {
		return Result{}, fmt.Errorf("%s: %d daily bars for a %d-day volume mean: %w",
			daily.Symbol, upTo.Len(), VolumeWindow, model.ErrInsufficientHistory)
	}
	volumes := upTo.Volumes()
	mean, err := calculator.CalculateSMA(volumes, VolumeWindow)
	if err != nil {
		return Result{}, err
	}
	current := volumes[len(volumes)-1]
	if math.IsNaN(mean) || mean <= 0 || math.IsNaN(current) {
		return Result{}, fmt.Errorf("%s: degenerate %d-day volume mean: %w", daily.Symbol, VolumeWindow, model.ErrDataUnavailable)
	}
	return Result{Ratio: current / mean, Source: SourceDaily, Points: VolumeWindow}, nil
}

// DailyLoader supplies the record's daily series on demand.
type DailyLoader func() (model.Series, error)

// Calculator applies the premarket-first policy for one record.
type Calculator struct {
	PremarketColumn string
}

// Compute tries the premarket path when the record carries a premarket volume, and always falls
// back to daily volume when that path yields nothing.
func (c Calculator) Compute(rec model.Record, snapshot []model.Record, daily DailyLoader) (Result, error) {
	var notes []string
	if c.PremarketColumn != "" {
		if current, ok := dataset.ParseNumber(rec.Cell(c.PremarketColumn)); ok {
			res, err := FromPremarket(current, rec.Ticker, rec.EventDate, snapshot, c.PremarketColumn)
			if err == nil {
				return res, nil
			}
			notes = append(notes, "premarket: "+err.Error())
		}
	}

	series, err := daily()
	if err != nil {
		return Result{}, fmt.Errorf("relative volume fallback: %w", err)
	}
	res, err := FromDaily(series, rec.EventDate)
	if err != nil {
		return Result{}, fmt.Errorf("relative volume fallback: %w", err)
	}
	res.Warnings = append(notes, res.Warnings...)
	return res, nil
}
