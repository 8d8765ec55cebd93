package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"EventIndicators/internal/model"
)

// RESTFetcher implements Fetcher against a generic bar REST API:
//
//	GET {base}/api/v1/bars/daily?symbol=S&start=YYYY-MM-DD&end=YYYY-MM-DD
//	GET {base}/api/v1/bars/minute?symbol=S&date=YYYY-MM-DD
type RESTFetcher struct {
	BaseURL  string
	APIKey   string
	Client   *http.Client
	Location *time.Location // session time zone for bar timestamps
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, loc *time.Location) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Location: loc,
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (f *RESTFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (model.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	return f.fetchBars(ctx, symbol, f.BaseURL+"/api/v1/bars/daily?"+q.Encode())
}

func (f *RESTFetcher) FetchMinuteBars(ctx context.Context, symbol string, day time.Time) (model.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("date", day.Format("2006-01-02"))
	series, err := f.fetchBars(ctx, symbol, f.BaseURL+"/api/v1/bars/minute?"+q.Encode())
	if err != nil {
		return model.Series{}, err
	}
	series = series.On(day)
	if series.Empty() {
		return model.Series{}, fmt.Errorf("rest: %s has no minute bars on %s: %w", symbol, day.Format("2006-01-02"), model.ErrDataUnavailable)
	}
	return series, nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol, endpoint string) (model.Series, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.Series{}, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return model.Series{}, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return model.Series{}, fmt.Errorf("fetch bars: %s: %w", symbol, model.ErrDataUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.Series{}, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return model.Series{}, fmt.Errorf("decode bars: %w", err)
	}

	frame := Frame{
		Symbol:  symbol,
		Columns: []string{"Open", "High", "Low", "Close", "Volume"},
	}
	for _, b := range bars {
		frame.Index = append(frame.Index, time.Unix(b.Timestamp, 0).In(f.Location))
		frame.Values = append(frame.Values, []float64{orNaN(b.Open), orNaN(b.High), orNaN(b.Low), orNaN(b.Close), orNaN(b.Volume)})
	}
	return Normalize(frame)
}
