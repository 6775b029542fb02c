package core

import (
	"context"
	"time"
)

// PriceProvider fetches a current price fact from an external source.
// Implementations apply their own bounded timeout and return an error
// for every failure mode (network, status, parse, unmapped symbol).
type PriceProvider interface {
	Name() string
	FetchPrice(ctx context.Context, symbol string) (PriceData, error)
}

type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, symbol string) ([]NewsItem, error)
}

// HistoryProvider fetches the price fact for one calendar date
// (YYYY-MM-DD).
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol, date string) (HistoryPoint, error)
}

// Formatter renders already-resolved facts into prose. It must not add
// information absent from its input, and it must degrade to a
// deterministic templated rendering when its backend is unavailable —
// Format methods therefore never fail.
type Formatter interface {
	FormatMetadata(ctx context.Context, meta CoinMetadata) string
	FormatPrice(ctx context.Context, data PriceData, intent Intent) string
	FormatNews(ctx context.Context, items []NewsItem, symbol string) string
	FormatHistory(ctx context.Context, point HistoryPoint) string
	FormatComparison(ctx context.Context, rows []PriceData) string

	// ExtractDate resolves the target date (YYYY-MM-DD) referenced by
	// the query, relative to ref. ok is false when no date is found.
	ExtractDate(ctx context.Context, query string, ref time.Time) (date string, ok bool)
}
