package relvol

import (
	"errors"
	"math"
	"testing"
	"time"

	"EventIndicators/internal/collector"
	"EventIndicators/internal/model"
)

const premarketCol = "盤前成交量"

func date(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func rec(row int, ticker string, d int, premarket string) model.Record {
	return model.Record{
		Row: row, Ticker: ticker, EventDate: date(d),
		Cells: map[string]string{premarketCol: premarket},
	}
}

func TestFromPremarket_PartialHistory(t *testing.T) {
	history := []model.Record{
		rec(2, "ABC", 1, "100"),
		rec(3, "ABC", 2, "200"),
		rec(4, "XYZ", 3, "9999"),
		rec(5, "abc", 4, "150"),
		rec(6, "ABC", 5, ""),
		rec(7, "ABC", 12, "5000"), // after the event
	}
	res, err := FromPremarket(300, "ABC", date(10), history, premarketCol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Ratio-2.0) > 1e-9 {
		t.Errorf("Ratio = %v, want 2.0", res.Ratio)
	}
	if res.Points != 3 || res.Source != SourcePremarket {
		t.Errorf("Points = %d, Source = %s", res.Points, res.Source)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one partial-history warning, got %v", res.Warnings)
	}
}

func TestFromPremarket_MostRecentFive(t *testing.T) {
	var history []model.Record
	// days 1..7: the two oldest (1000 each) must be dropped
	vols := []string{"1000", "1000", "10", "10", "10", "10", "10"}
	for i, v := range vols {
		history = append(history, rec(i+2, "ABC", i+1, v))
	}
	res, err := FromPremarket(50, "ABC", date(8), history, premarketCol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Ratio-5) > 1e-9 || res.Points != HistoryDepth {
		t.Errorf("Ratio = %v over %d points, want 5 over %d", res.Ratio, res.Points, HistoryDepth)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestFromPremarket_NoHistory(t *testing.T) {
	_, err := FromPremarket(300, "ABC", date(10), nil, premarketCol)
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Errorf("err = %v, want ErrInsufficientHistory", err)
	}
}

func TestFromDaily(t *testing.T) {
	event := date(20)
	// bars end on the event day: volumes 100,100,100,100,600 -> mean 200
	s := collector.DailyBars("ABC", event.AddDate(0, 0, 1), []float64{1, 1, 1, 1, 1, 1}, []float64{999, 100, 100, 100, 100, 600})
	res, err := FromDaily(s, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Ratio-3) > 1e-9 || res.Source != SourceDaily {
		t.Errorf("Ratio = %v (%s), want 3 (daily)", res.Ratio, res.Source)
	}
}

func TestFromDaily_ShortHistory(t *testing.T) {
	s := collector.DailyBars("ABC", date(20), []float64{1, 1}, nil)
	if _, err := FromDaily(s, date(20)); !errors.Is(err, model.ErrInsufficientHistory) {
		t.Errorf("err = %v, want ErrInsufficientHistory", err)
	}
}

func TestCalculator_FallsBackToDaily(t *testing.T) {
	event := date(20)
	daily := collector.DailyBars("ABC", event.AddDate(0, 0, 1), []float64{1, 1, 1, 1, 1}, []float64{100, 100, 100, 100, 100})
	calls := 0
	loader := func() (model.Series, error) {
		calls++
		return daily, nil
	}
	c := Calculator{PremarketColumn: premarketCol}

	res, err := c.Compute(rec(2, "ABC", 20, "300"), nil, loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Source != SourceDaily || math.Abs(res.Ratio-1) > 1e-9 {
		t.Errorf("got %v from %s, want 1 from daily", res.Ratio, res.Source)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected the premarket failure to be carried as a warning")
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestCalculator_PremarketSkipsDailyLoad(t *testing.T) {
	snapshot := []model.Record{rec(2, "ABC", 1, "100")}
	loader := func() (model.Series, error) {
		t.Fatal("daily loader should not be called")
		return model.Series{}, nil
	}
	c := Calculator{PremarketColumn: premarketCol}
	res, err := c.Compute(rec(3, "ABC", 5, "250"), snapshot, loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Ratio-2.5) > 1e-9 {
		t.Errorf("Ratio = %v, want 2.5", res.Ratio)
	}
}

func TestCalculator_FallbackFailure(t *testing.T) {
	loader := func() (model.Series, error) { return model.Series{}, model.ErrDataUnavailable }
	_, err := Calculator{}.Compute(rec(2, "ABC", 20, ""), nil, loader)
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}
