package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/coinbot/internal/core"
)

// coinGeckoIDs maps registry symbols to CoinGecko coin identifiers.
// Symbols outside the table fail the lookup.
var coinGeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
}

// CoinGecko serves as the fallback price provider and the sole history
// provider. The free API needs no key.
type CoinGecko struct {
	baseClient
}

func NewCoinGecko(baseURL string) *CoinGecko {
	return &CoinGecko{baseClient: newBaseClient(baseURL, "")}
}

func (c *CoinGecko) Name() string { return "CoinGecko API" }

func (c *CoinGecko) FetchPrice(ctx context.Context, symbol string) (core.PriceData, error) {
	id, ok := coinGeckoIDs[strings.ToUpper(symbol)]
	if !ok {
		return core.PriceData{}, fmt.Errorf("coingecko: unmapped symbol %s", symbol)
	}

	query := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"community_data": {"false"},
		"developer_data": {"false"},
	}

	body, err := c.get(ctx, "/api/v3/coins/"+id, query, nil)
	if err != nil {
		return core.PriceData{}, fmt.Errorf("coingecko: %w", err)
	}

	var resp struct {
		Name       string `json:"name"`
		MarketData struct {
			CurrentPrice             map[string]float64 `json:"current_price"`
			MarketCap                map[string]float64 `json:"market_cap"`
			TotalVolume              map[string]float64 `json:"total_volume"`
			PriceChangePercentage24h float64            `json:"price_change_percentage_24h"`
			MarketCapRank            int                `json:"market_cap_rank"`
		} `json:"market_data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.PriceData{}, fmt.Errorf("coingecko: decode: %w", err)
	}

	return core.PriceData{
		Symbol:    strings.ToUpper(symbol),
		Name:      resp.Name,
		Price:     resp.MarketData.CurrentPrice["usd"],
		MarketCap: resp.MarketData.MarketCap["usd"],
		Change24h: resp.MarketData.PriceChangePercentage24h,
		Volume24h: resp.MarketData.TotalVolume["usd"],
		Rank:      resp.MarketData.MarketCapRank,
	}, nil
}

func (c *CoinGecko) FetchHistory(ctx context.Context, symbol, date string) (core.HistoryPoint, error) {
	id, ok := coinGeckoIDs[strings.ToUpper(symbol)]
	if !ok {
		return core.HistoryPoint{}, fmt.Errorf("coingecko: unmapped symbol %s", symbol)
	}

	// The history endpoint wants dd-mm-yyyy.
	dt, err := time.Parse("2006-01-02", date)
	if err != nil {
		return core.HistoryPoint{}, fmt.Errorf("coingecko: bad date %q: %w", date, err)
	}

	query := url.Values{
		"date":         {dt.Format("02-01-2006")},
		"localization": {"false"},
	}

	body, err := c.get(ctx, "/api/v3/coins/"+id+"/history", query, nil)
	if err != nil {
		return core.HistoryPoint{}, fmt.Errorf("coingecko: %w", err)
	}

	var resp struct {
		MarketData *struct {
			CurrentPrice map[string]float64 `json:"current_price"`
			MarketCap    map[string]float64 `json:"market_cap"`
		} `json:"market_data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.HistoryPoint{}, fmt.Errorf("coingecko: decode: %w", err)
	}
	if resp.MarketData == nil {
		return core.HistoryPoint{}, fmt.Errorf("coingecko: no market data for %s on %s", symbol, date)
	}

	return core.HistoryPoint{
		Symbol:    strings.ToUpper(symbol),
		Date:      date,
		Price:     resp.MarketData.CurrentPrice["usd"],
		MarketCap: resp.MarketData.MarketCap["usd"],
	}, nil
}
