package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"EventIndicators/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client  *http.Client
	BaseURL string
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: yahooChartURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return math.NaN()
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return math.NaN()
	}
}

func at(vals []interface{}, i int) float64 {
	if i >= len(vals) {
		return math.NaN()
	}
	return toFloat(vals[i])
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval string, start, end time.Time) (Frame, *time.Location, error) {
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("includePrePost", "false")
	q.Set("events", "div,splits")
	u := f.BaseURL + url.PathEscape(symbol) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Frame{}, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return Frame{}, nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Frame{}, nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Frame{}, nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return Frame{}, nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return Frame{}, nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return Frame{}, nil, fmt.Errorf("yahoo: %s: %w", symbol, model.ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	loc := time.FixedZone("exchange", result.Meta.GMTOffset)
	if result.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(result.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	quote := result.Indicators.Quote[0]
	frame := Frame{
		Symbol:  symbol,
		Columns: []string{"Open", "High", "Low", "Close", "Volume"},
	}
	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
		frame.Columns = append(frame.Columns, "Adj Close")
	}
	for i, ts := range result.Timestamp {
		row := []float64{at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i), at(quote.Volume, i)}
		if adj != nil {
			row = append(row, at(adj, i))
		}
		frame.Index = append(frame.Index, time.Unix(ts, 0).In(loc))
		frame.Values = append(frame.Values, row)
	}
	return frame, loc, nil
}

func (f *YahooFetcher) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (model.Series, error) {
	frame, _, err := f.fetchChart(ctx, symbol, "1d", start, end)
	if err != nil {
		return model.Series{}, err
	}
	return Normalize(frame)
}

func (f *YahooFetcher) FetchMinuteBars(ctx context.Context, symbol string, day time.Time) (model.Series, error) {
	// The exchange time zone is only known after the call, so widen the window and cut afterwards.
	d := model.CivilDate(day)
	frame, _, err := f.fetchChart(ctx, symbol, "1m", d.AddDate(0, 0, -1), d.AddDate(0, 0, 2))
	if err != nil {
		return model.Series{}, err
	}
	series, err := Normalize(frame)
	if err != nil {
		return model.Series{}, err
	}
	sameDay := series.On(d)
	if sameDay.Empty() {
		return model.Series{}, fmt.Errorf("yahoo: %s has no minute bars on %s: %w", symbol, d.Format("2006-01-02"), model.ErrDataUnavailable)
	}
	return sameDay, nil
}
