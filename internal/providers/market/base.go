package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sandevgo/coinbot/internal/core"
)

// requestTimeout bounds every provider call; a timeout is converted to
// the same failure outcome as any other provider error.
const requestTimeout = 10 * time.Second

type baseClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func newBaseClient(baseURL, apiKey string) baseClient {
	return baseClient{
		client: &http.Client{
			Timeout: requestTimeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (b *baseClient) get(ctx context.Context, path string, query url.Values, headers map[string]string) ([]byte, error) {
	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", core.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// toFloat coerces the loosely-typed numeric fields some free APIs
// return (numbers or numeric strings).
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func toInt(v any) int {
	return int(toFloat(v))
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}
