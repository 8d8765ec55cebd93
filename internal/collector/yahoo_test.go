package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"EventIndicators/internal/model"
)

// 2024-03-15 19:59 UTC, then 2024-03-18 13:30..13:32 UTC; exchange offset is -4h.
const minuteChart = `{"chart":{"result":[{
	"meta":{"gmtoffset":-14400,"exchangeTimezoneName":""},
	"timestamp":[1710532740,1710768600,1710768660,1710768720],
	"indicators":{"quote":[{
		"open":[5,10,null,12],
		"high":[5,11,null,13],
		"low":[5,9,null,11],
		"close":[5,10.5,null,12.5],
		"volume":[1,100,null,300]
	}]}
}],"error":null}}`

func newYahooTest(t *testing.T, body string, status int) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/NVDA") {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	f := NewYahooFetcher("")
	f.BaseURL = srv.URL + "/"
	return f
}

func TestYahooFetcher_MinuteBarsCutToSessionDay(t *testing.T) {
	f := newYahooTest(t, minuteChart, http.StatusOK)
	day := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)

	s, err := f.FetchMinuteBars(context.Background(), "NVDA", day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 bars after dropping the null and prior-day bars, got %d", s.Len())
	}
	if s.Bars[0].Open != 10 || s.Bars[1].Close != 12.5 {
		t.Errorf("unexpected bars: %+v", s.Bars)
	}
	if h := s.Bars[0].Time.Hour(); h != 9 {
		t.Errorf("first bar hour = %d, want 9 in exchange time", h)
	}
}

func TestYahooFetcher_NoBarsOnDay(t *testing.T) {
	f := newYahooTest(t, minuteChart, http.StatusOK)
	day := time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)
	if _, err := f.FetchMinuteBars(context.Background(), "NVDA", day); !errors.Is(err, model.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	f := newYahooTest(t, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, http.StatusOK)
	_, err := f.FetchDailyBars(context.Background(), "NVDA", time.Now().AddDate(0, 0, -10), time.Now())
	if err == nil || !strings.Contains(err.Error(), "No data found") {
		t.Errorf("err = %v, want the API description", err)
	}
}

func TestYahooFetcher_HTTPStatus(t *testing.T) {
	f := newYahooTest(t, "boom", http.StatusInternalServerError)
	if _, err := f.FetchDailyBars(context.Background(), "NVDA", time.Now().AddDate(0, 0, -10), time.Now()); err == nil {
		t.Error("expected error on HTTP 500")
	}
}
