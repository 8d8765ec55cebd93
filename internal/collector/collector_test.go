package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"EventIndicators/internal/model"
)

func TestWithinRecency(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"same day", time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC), true},
		{"seven days and change", time.Date(2024, 3, 17, 23, 59, 0, 0, time.UTC), true},
		{"eight days", time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), false},
		{"wall clock, not UTC", time.Date(2024, 3, 17, 22, 0, 0, 0, time.FixedZone("EDT", -4*3600)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinRecency(day, tt.now, MinuteRecencyDays); got != tt.want {
				t.Errorf("WithinRecency = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyWindow_IncludesEventDay(t *testing.T) {
	event := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	s := DailyBars("ABC", event.AddDate(0, 0, 2), []float64{1, 2, 3, 4, 5}, nil)
	m := &MockFetcher{Daily: map[string]model.Series{"ABC": s}}

	got, err := NewCollector(m).DailyWindow(context.Background(), "ABC", event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// bars run 03-17..03-21; the window stops after the event day
	if got.Len() != 4 {
		t.Fatalf("expected 4 bars, got %d", got.Len())
	}
	last := got.Bars[got.Len()-1].Time
	if !model.CivilDate(last).Equal(event) {
		t.Errorf("last bar on %v, want the event day", last)
	}
}

func TestDailyWindow_Unavailable(t *testing.T) {
	m := &MockFetcher{}
	_, err := NewCollector(m).DailyWindow(context.Background(), "NOPE", time.Now())
	if !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
	if m.DailyCalls != 1 {
		t.Errorf("DailyCalls = %d, want 1", m.DailyCalls)
	}
}
