package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"EventIndicators/internal/model"
)

const (
	// DailyLookbackDays is the calendar span fetched before an event date: enough to seed the
	// 14-period smoothing plus a 120-trading-day trailing window.
	DailyLookbackDays = 250

	// MinuteRecencyDays is the provider ceiling for 1-minute bars.
	MinuteRecencyDays = 7
)

// Collector wraps a Fetcher with the event-relative fetch windows.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// DailyWindow fetches the daily bars from DailyLookbackDays before the event date through the event date.
func (c *Collector) DailyWindow(ctx context.Context, symbol string, eventDate time.Time) (model.Series, error) {
	d := model.CivilDate(eventDate)
	series, err := c.Fetcher.FetchDailyBars(ctx, symbol, d.AddDate(0, 0, -DailyLookbackDays), d.AddDate(0, 0, 1))
	if err != nil {
		return model.Series{}, fmt.Errorf("fetch daily bars: %w", err)
	}
	if series.Empty() {
		return model.Series{}, fmt.Errorf("fetch daily bars: %s: %w", symbol, model.ErrDataUnavailable)
	}
	return series, nil
}

// WithinRecency reports whether day is recent enough for minute bars, counting whole days elapsed
// between day's midnight and now's wall clock.
func WithinRecency(day, now time.Time, maxDays int) bool {
	y, m, d := now.Date()
	wall := time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), 0, time.UTC)
	elapsed := math.Floor(wall.Sub(model.CivilDate(day)).Hours() / 24)
	return elapsed <= float64(maxDays)
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
