package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sandevgo/coinbot/internal/core"
)

// maxNewsItems caps a news bundle; free tiers page anyway.
const maxNewsItems = 3

// CryptoNews fetches headlines from cryptonewsapi.com.
type CryptoNews struct {
	baseClient
}

func NewCryptoNews(baseURL, apiKey string) *CryptoNews {
	return &CryptoNews{baseClient: newBaseClient(baseURL, apiKey)}
}

func (c *CryptoNews) Name() string { return "CryptoNewsAPI" }

func (c *CryptoNews) FetchNews(ctx context.Context, symbol string) ([]core.NewsItem, error) {
	query := url.Values{
		"section": {"general"},
		"items":   {fmt.Sprint(maxNewsItems)},
		"token":   {c.apiKey},
		"tickers": {symbol},
	}

	body, err := c.get(ctx, "/category", query, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptonews: %w", err)
	}

	var resp struct {
		Data []struct {
			Title      string `json:"title"`
			NewsURL    string `json:"news_url"`
			SourceName string `json:"source_name"`
			Date       string `json:"date"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("cryptonews: decode: %w", err)
	}

	items := make([]core.NewsItem, 0, maxNewsItems)
	for _, d := range resp.Data {
		items = append(items, core.NewsItem{
			Title:  d.Title,
			URL:    d.NewsURL,
			Source: d.SourceName,
			Date:   d.Date,
		})
		if len(items) == maxNewsItems {
			break
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("cryptonews: no items for %s", symbol)
	}
	return items, nil
}
