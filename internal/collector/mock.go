package collector

import (
	"context"
	"fmt"
	"time"

	"EventIndicators/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Daily  map[string]model.Series
	Minute map[string]model.Series // keyed by symbol + "@" + YYYY-MM-DD
	Err    error

	DailyCalls  int
	MinuteCalls int
}

func (m *MockFetcher) Name() string { return "mock" }

// MinuteKey builds the Minute map key for a symbol and day.
func MinuteKey(symbol string, day time.Time) string {
	return symbol + "@" + day.Format("2006-01-02")
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) (model.Series, error) {
	m.DailyCalls++
	if m.Err != nil {
		return model.Series{}, m.Err
	}
	s, ok := m.Daily[symbol]
	if !ok {
		return model.Series{}, fmt.Errorf("mock: %s: %w", symbol, model.ErrDataUnavailable)
	}
	out := model.Series{Symbol: symbol}
	for _, b := range s.Bars {
		d := model.CivilDate(b.Time)
		if !d.Before(model.CivilDate(start)) && d.Before(model.CivilDate(end)) {
			out.Bars = append(out.Bars, b)
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchMinuteBars(_ context.Context, symbol string, day time.Time) (model.Series, error) {
	m.MinuteCalls++
	if m.Err != nil {
		return model.Series{}, m.Err
	}
	s, ok := m.Minute[MinuteKey(symbol, day)]
	if !ok {
		return model.Series{}, fmt.Errorf("mock: %s minute bars: %w", symbol, model.ErrDataUnavailable)
	}
	return s, nil
}

// DailyBars builds consecutive calendar-day bars ending the day before end, one per close.
// High/Low sit 1% around the close and volume is constant unless volumes is provided.
func DailyBars(symbol string, end time.Time, closes []float64, volumes []float64) model.Series {
	s := model.Series{Symbol: symbol}
	start := model.CivilDate(end).AddDate(0, 0, -len(closes))
	for i, c := range closes {
		v := 1_000_000.0
		if i < len(volumes) {
			v = volumes[i]
		}
		s.Bars = append(s.Bars, model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: v,
		})
	}
	return s
}
