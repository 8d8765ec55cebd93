package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"EventIndicators/internal/model"
)

func testDay(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestTrailing(t *testing.T) {
	nan := math.NaN()
	values := []float64{nan, 1, 2, 3, 4}
	times := []time.Time{testDay(0), testDay(1), testDay(2), testDay(3), testDay(4)}

	tests := []struct {
		name   string
		cutoff time.Time
		k      int
		want   []float64
	}{
		{"last two before cutoff", testDay(3), 2, []float64{2, 3}},
		{"short history", testDay(3), 10, []float64{1, 2, 3}},
		{"cutoff keeps the whole day", testDay(4).Add(15 * time.Hour), 1, []float64{4}},
		{"nothing defined", testDay(0), 3, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trailing(values, times, tt.cutoff, tt.k)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func synthetic(n int) model.Series {
	s := model.Series{Symbol: "XYZ"}
	for i := 0; i < n; i++ {
		c := 100 + 8*math.Sin(float64(i)/5) + float64(i%4)
		s.Bars = append(s.Bars, model.OHLCV{
			Time: testDay(i), Open: c, High: c + 1.5, Low: c - 1.2, Close: c, Volume: 1e6,
		})
	}
	return s
}

func TestComputeSequences_FullHistory(t *testing.T) {
	s := synthetic(250)
	seq, err := ComputeSequences(s, testDay(249))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, k := range SequenceHorizons {
		if len(seq.RSI[k]) != k {
			t.Errorf("RSI %d window has %d points", k, len(seq.RSI[k]))
		}
		if len(seq.ADX[k]) != k {
			t.Errorf("ADX %d window has %d points", k, len(seq.ADX[k]))
		}
	}
	if len(seq.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", seq.Warnings)
	}
	// windows nest: the 5-day tail equals the end of the 30-day tail
	r30 := seq.RSI[30]
	for i, v := range seq.RSI[5] {
		if v != r30[25+i] {
			t.Fatalf("RSI 5-day tail does not match the 30-day tail at %d", i)
		}
	}
}

func TestComputeSequences_ShortHistoryWarns(t *testing.T) {
	s := synthetic(40)
	seq, err := ComputeSequences(s, testDay(39))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seq.RSI[120]) != 27 {
		t.Errorf("RSI 120 window has %d points, want 27", len(seq.RSI[120]))
	}
	if len(seq.Warnings) == 0 {
		t.Error("expected a short-history warning")
	}
}

func TestComputeSequences_TooShort(t *testing.T) {
	_, err := ComputeSequences(synthetic(10), testDay(9))
	if !errors.Is(err, model.ErrInsufficientHistory) {
		t.Errorf("err = %v, want ErrInsufficientHistory", err)
	}
}
