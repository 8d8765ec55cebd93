package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"EventIndicators/internal/model"
)

// DistanceHorizons are the trailing close windows used for price distance.
var DistanceHorizons = []int{5, 30, 120}

// Distance is where a reference price sits relative to a trailing close window.
type Distance struct {
	Window    int
	Highest   float64
	Lowest    float64
	ToHighPct float64 // signed, (ref-highest)/highest*100
	ToLowPct  float64 // signed, (ref-lowest)/lowest*100
}

// PriceDistance scans the most recent window closes and measures the reference against them.
func PriceDistance(closes []float64, reference float64, window int) (Distance, error) {
	if window <= 0 {
		return Distance{}, errors.New("window must be positive")
	}
	if len(closes) < window {
		return Distance{}, fmt.Errorf("%d closes for a %d-day window: %w", len(closes), window, model.ErrInsufficientHistory)
	}
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, c := range closes[len(closes)-window:] {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return Distance{
		Window:    window,
		Highest:   high,
		Lowest:    low,
		ToHighPct: percentFrom(reference, high),
		ToLowPct:  percentFrom(reference, low),
	}, nil
}

// percentFrom is NaN when the base is not a usable price.
func percentFrom(ref, base float64) float64 {
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		return math.NaN()
	}
	return (ref - base) / base * 100
}

// DistanceSet is the price-distance group for one event.
type DistanceSet struct {
	Reference     float64 // last close strictly before the event date
	ReferenceDate time.Time
	ByWindow      map[int]Distance
	Warnings      []string
}

// ComputeDistances measures the prior close against each horizon of closes before the event date.
func ComputeDistances(daily model.Series, eventDate time.Time) (*DistanceSet, error) {
	before := daily.Before(eventDate)
	if before.Empty() {
		return nil, fmt.Errorf("%s: no bars before %s: %w", daily.Symbol, eventDate.Format("2006-01-02"), model.ErrDataUnavailable)
	}
	closes := before.Closes()
	last := before.Bars[before.Len()-1]

	set := &DistanceSet{
		Reference:     last.Close,
		ReferenceDate: last.Time,
		ByWindow:      make(map[int]Distance, len(DistanceHorizons)),
	}
	for _, w := range DistanceHorizons {
		d, err := PriceDistance(closes, set.Reference, w)
		if err != nil {
			set.Warnings = append(set.Warnings, err.Error())
			continue
		}
		set.ByWindow[w] = d
	}
	return set, nil
}
