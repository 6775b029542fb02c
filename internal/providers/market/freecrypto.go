package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sandevgo/coinbot/internal/core"
)

// FreeCrypto is the primary price provider (freecryptoapi.com).
type FreeCrypto struct {
	baseClient
}

func NewFreeCrypto(baseURL, apiKey string) *FreeCrypto {
	return &FreeCrypto{baseClient: newBaseClient(baseURL, apiKey)}
}

func (f *FreeCrypto) Name() string { return "FreeCryptoAPI" }

func (f *FreeCrypto) FetchPrice(ctx context.Context, symbol string) (core.PriceData, error) {
	query := url.Values{"symbol": {symbol}}
	headers := map[string]string{"X-API-KEY": f.apiKey}

	body, err := f.get(ctx, "/getData", query, headers)
	if err != nil {
		return core.PriceData{}, fmt.Errorf("freecrypto: %w", err)
	}

	// Numeric fields arrive as numbers or strings depending on the
	// endpoint tier; coerce both.
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return core.PriceData{}, fmt.Errorf("freecrypto: decode: %w", err)
	}

	name := toString(raw["name"])
	if name == "" {
		name = "Unknown"
	}

	return core.PriceData{
		Symbol:    symbol,
		Name:      name,
		Price:     toFloat(raw["price"]),
		MarketCap: toFloat(raw["market_cap"]),
		Change24h: toFloat(raw["change_24h"]),
		Volume24h: toFloat(raw["volume_24h"]),
		Rank:      toInt(raw["rank"]),
	}, nil
}
