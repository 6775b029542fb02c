package core

import "time"

const (
	AppName   = "CoinBot"
	UserAgent = "CoinBot/1.0"
	Version   = "1.0.0"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Coin is a registry entry. The registry is loaded once at startup and
// shared read-only by the detector and the retrieval engine.
type Coin struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Turn is a single conversation entry. Immutable once appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Entity    string    `json:"entity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Intent is the category of information a query asks for.
type Intent string

const (
	IntentPrice      Intent = "price"
	IntentMarketCap  Intent = "market_cap"
	IntentNews       Intent = "news"
	IntentHistory    Intent = "price_history"
	IntentComparison Intent = "comparison"
	IntentMetadata   Intent = "metadata"
	IntentFollowUp   Intent = "follow_up"
	IntentUnknown    Intent = "unknown"
	IntentRejected   Intent = "rejected"
)

// EntityMatch is one detected coin with its detection confidence.
type EntityMatch struct {
	Symbol     string  `json:"symbol"`
	Confidence float64 `json:"confidence"`
}

// Detection is the detector output for one query. The first entity is
// the primary one.
type Detection struct {
	Entities          []EntityMatch `json:"entities"`
	Intent            Intent        `json:"intent"`
	IntentConfidence  float64       `json:"intent_confidence"`
	OverallConfidence float64       `json:"overall_confidence"`
	ShouldReject      bool          `json:"should_reject"`
}

// Primary returns the first detected entity, if any.
func (d Detection) Primary() (EntityMatch, bool) {
	if len(d.Entities) == 0 {
		return EntityMatch{}, false
	}
	return d.Entities[0], true
}

// Symbols returns all detected symbols in detection order.
func (d Detection) Symbols() []string {
	out := make([]string, len(d.Entities))
	for i, e := range d.Entities {
		out[i] = e.Symbol
	}
	return out
}

// CoinMetadata is the static, immutable part of a knowledge store
// record.
type CoinMetadata struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"coin"`
	Description string  `json:"description"`
	LaunchYear  int     `json:"launch_year"`
	Consensus   string  `json:"consensus"`
	ChainType   string  `json:"chain_type"`
	Creator     string  `json:"creator"`
	MaxSupply   float64 `json:"max_supply"` // 0 means uncapped
}

// PriceData is one provider (or cache) price fact.
type PriceData struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
	Change24h float64 `json:"change_24h"`
	Volume24h float64 `json:"volume_24h"`
	Rank      int     `json:"rank"`
}

// PriceSnapshot is the cached form of PriceData. A later fetch always
// overwrites the whole snapshot; FetchedAt never goes backwards for a
// symbol.
type PriceSnapshot struct {
	PriceData
	FetchedAt time.Time `json:"fetched_at"`
}

type NewsItem struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
	Date   string `json:"date"`
}

type NewsBundle struct {
	Items     []NewsItem `json:"items"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// HistoryPoint is a price fact for one calendar date (YYYY-MM-DD).
// At most one point exists per (symbol, date).
type HistoryPoint struct {
	Symbol    string  `json:"symbol"`
	Date      string  `json:"date"`
	Price     float64 `json:"price"`
	MarketCap float64 `json:"market_cap"`
}

// PipelineResult is the terminal outcome of one query.
type PipelineResult struct {
	Response   string  `json:"response"`
	Source     string  `json:"source,omitempty"`
	Confidence float64 `json:"confidence"`
	Entity     string  `json:"entity,omitempty"`
	Intent     Intent  `json:"intent"`
}
