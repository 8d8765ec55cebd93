package collector

import (
	"context"
	"time"

	"EventIndicators/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyBars returns daily bars with trading dates in [start, end).
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) (model.Series, error)
	// FetchMinuteBars returns the regular-session 1-minute bars of one trading day.
	FetchMinuteBars(ctx context.Context, symbol string, day time.Time) (model.Series, error)
	Name() string
}
