package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/internal/detector"
	"github.com/sandevgo/coinbot/internal/formatter"
	"github.com/sandevgo/coinbot/internal/memory"
)

var testRegistry = []core.Coin{
	{Symbol: "BTC", Name: "Bitcoin"},
	{Symbol: "SOL", Name: "Solana"},
	{Symbol: "ADA", Name: "Cardano"},
	{Symbol: "DOT", Name: "Polkadot"},
	{Symbol: "LINK", Name: "Chainlink"},
}

type fakeMetaStore struct {
	metadata map[string]core.CoinMetadata
}

func (s *fakeMetaStore) Metadata(ctx context.Context, symbol string) (core.CoinMetadata, error) {
	meta, ok := s.metadata[symbol]
	if !ok {
		return core.CoinMetadata{}, core.ErrNotFound
	}
	return meta, nil
}

type fakeRetriever struct {
	mu         sync.Mutex
	prices     map[string]core.Result[core.PriceData]
	news       map[string]core.Result[[]core.NewsItem]
	history    map[string]core.Result[core.HistoryPoint]
	priceCalls []string
}

func (r *fakeRetriever) Price(ctx context.Context, symbol string, forceRefresh bool) core.Result[core.PriceData] {
	r.mu.Lock()
	r.priceCalls = append(r.priceCalls, symbol)
	r.mu.Unlock()
	return r.prices[symbol]
}

func (r *fakeRetriever) News(ctx context.Context, symbol string) core.Result[[]core.NewsItem] {
	return r.news[symbol]
}

func (r *fakeRetriever) History(ctx context.Context, symbol, date string) core.Result[core.HistoryPoint] {
	return r.history[symbol+"|"+date]
}

func providerHit(symbol string, price float64) core.Result[core.PriceData] {
	return core.Hit(core.PriceData{Symbol: symbol, Price: price, MarketCap: 1e11, Rank: 1}, "FreeCryptoAPI", time.Now(), 0.9)
}

func newTestPipeline(retriever *fakeRetriever, store *fakeMetaStore) *Pipeline {
	if retriever == nil {
		retriever = &fakeRetriever{}
	}
	if store == nil {
		store = &fakeMetaStore{}
	}
	return New(
		detector.New(testRegistry),
		store,
		retriever,
		formatter.New(nil),
		memory.NewSessionStore(memory.DefaultMaxTurns),
	)
}

func TestProcessQuery_PriceEndToEnd(t *testing.T) {
	retriever := &fakeRetriever{
		prices: map[string]core.Result[core.PriceData]{"BTC": providerHit("BTC", 61234.5)},
	}
	p := newTestPipeline(retriever, nil)

	result := p.ProcessQuery(context.Background(), "s1", "What is the price of BTC?")

	assert.Equal(t, core.IntentPrice, result.Intent)
	assert.Equal(t, "BTC", result.Entity)
	assert.Equal(t, "FreeCryptoAPI", result.Source)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Contains(t, result.Response, "Current price of BTC: $61,234.50")
	assert.Contains(t, result.Response, "📊 Source: FreeCryptoAPI")
	assert.Contains(t, result.Response, "🎯 Confidence: 0.9")
}

func TestProcessQuery_MetadataFromKnowledgeBase(t *testing.T) {
	store := &fakeMetaStore{metadata: map[string]core.CoinMetadata{
		"BTC": {Symbol: "BTC", Name: "Bitcoin", Description: "The first cryptocurrency.", LaunchYear: 2009, Consensus: "Proof of Work"},
	}}
	p := newTestPipeline(nil, store)

	result := p.ProcessQuery(context.Background(), "s1", "Tell me about Bitcoin")

	assert.Equal(t, core.IntentMetadata, result.Intent)
	assert.Equal(t, core.SourceKnowledgeBase, result.Source)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Contains(t, result.Response, "Bitcoin (BTC)")
	assert.Contains(t, result.Response, "📊 Source: Knowledge Base")
}

func TestProcessQuery_MetadataMissingIsInsufficient(t *testing.T) {
	p := newTestPipeline(nil, nil)

	result := p.ProcessQuery(context.Background(), "s1", "Tell me about Solana")

	assert.Equal(t, "SOL", result.Entity)
	assert.Equal(t, InsufficientDataMessage, result.Response)
	assert.Empty(t, result.Source)
	assert.Zero(t, result.Confidence)
}

func TestProcessQuery_RejectedQueries(t *testing.T) {
	p := newTestPipeline(nil, nil)

	queries := []string{
		"Will BTC go up tomorrow?",
		"Should I buy Bitcoin?",
		"What if BTC crashes?",
	}
	for _, q := range queries {
		result := p.ProcessQuery(context.Background(), "s1", q)

		assert.Equal(t, InsufficientDataMessage, result.Response, "query %q", q)
		assert.Equal(t, core.IntentRejected, result.Intent, "query %q", q)
		assert.Zero(t, result.Confidence, "query %q", q)
		assert.NotContains(t, result.Response, "Source:", "query %q", q)
	}
}

func TestProcessQuery_LowConfidenceAsksForClarification(t *testing.T) {
	p := newTestPipeline(nil, nil)

	result := p.ProcessQuery(context.Background(), "s1", "hello there")

	assert.Equal(t, ClarificationMessage, result.Response)
	assert.Equal(t, core.IntentUnknown, result.Intent)
	assert.Zero(t, result.Confidence)
}

func TestProcessQuery_ComparisonAveragesConfidence(t *testing.T) {
	retriever := &fakeRetriever{
		prices: map[string]core.Result[core.PriceData]{
			"BTC": providerHit("BTC", 61234.5),
			"SOL": core.Hit(core.PriceData{Symbol: "SOL", Price: 150, Rank: 5}, core.SourceKnowledgeBase, time.Now(), 1.0),
		},
	}
	p := newTestPipeline(retriever, nil)

	result := p.ProcessQuery(context.Background(), "s1", "Compare BTC vs Solana")

	assert.Equal(t, core.IntentComparison, result.Intent)
	assert.Equal(t, "BTC, SOL", result.Entity)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.Contains(t, result.Source, "FreeCryptoAPI")
	assert.Contains(t, result.Source, core.SourceKnowledgeBase)
	assert.ElementsMatch(t, []string{"BTC", "SOL"}, retriever.priceCalls)
	assert.Contains(t, result.Response, "| BTC |")
	assert.Contains(t, result.Response, "| SOL |")
}

func TestProcessQuery_ComparisonDropsFailedLegs(t *testing.T) {
	retriever := &fakeRetriever{
		prices: map[string]core.Result[core.PriceData]{
			"BTC": providerHit("BTC", 61234.5),
			// SOL absent: zero-value Result, Success false.
		},
	}
	p := newTestPipeline(retriever, nil)

	result := p.ProcessQuery(context.Background(), "s1", "Compare BTC vs Solana")

	assert.Equal(t, "BTC, SOL", result.Entity)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Contains(t, result.Response, "| BTC |")
	assert.NotContains(t, result.Response, "| SOL |")
}

func TestProcessQuery_ComparisonAllLegsFail(t *testing.T) {
	p := newTestPipeline(&fakeRetriever{}, nil)

	result := p.ProcessQuery(context.Background(), "s1", "Compare BTC vs Solana")

	assert.Equal(t, InsufficientDataMessage, result.Response)
	assert.Equal(t, "BTC, SOL", result.Entity)
	assert.Zero(t, result.Confidence)
}

func TestProcessQuery_ComparisonNeedsTwoEntities(t *testing.T) {
	p := newTestPipeline(&fakeRetriever{}, nil)

	result := p.ProcessQuery(context.Background(), "s1", "Compare BTC")

	assert.Equal(t, ComparisonGuidanceMessage, result.Response)
	assert.Equal(t, core.IntentComparison, result.Intent)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.Entity)
}

func TestProcessQuery_PronounFollowUpUsesMemory(t *testing.T) {
	retriever := &fakeRetriever{
		prices: map[string]core.Result[core.PriceData]{"BTC": providerHit("BTC", 61234.5)},
	}
	p := newTestPipeline(retriever, nil)
	ctx := context.Background()

	first := p.ProcessQuery(ctx, "s1", "price of BTC")
	require.Equal(t, "BTC", first.Entity)

	second := p.ProcessQuery(ctx, "s1", "how much is it trading at now")

	assert.Equal(t, "BTC", second.Entity)
	assert.Equal(t, core.IntentPrice, second.Intent)
	assert.Contains(t, second.Response, "Current price of BTC")
}

func TestProcessQuery_SessionsAreIsolated(t *testing.T) {
	retriever := &fakeRetriever{
		prices: map[string]core.Result[core.PriceData]{"BTC": providerHit("BTC", 61234.5)},
	}
	p := newTestPipeline(retriever, nil)
	ctx := context.Background()

	p.ProcessQuery(ctx, "s1", "price of BTC")

	// No entity history in s2: the pronoun cannot resolve, the price
	// lookup runs without a symbol and comes back empty.
	result := p.ProcessQuery(ctx, "s2", "how much is it trading at now")

	assert.Empty(t, result.Entity)
	assert.Equal(t, InsufficientDataMessage, result.Response)
}

func TestProcessQuery_HistoryWithDate(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	retriever := &fakeRetriever{
		history: map[string]core.Result[core.HistoryPoint]{
			"BTC|2026-08-29": core.Hit(core.HistoryPoint{Symbol: "BTC", Date: "2026-08-29", Price: 60000}, "CoinGecko API", ref, 0.9),
		},
	}
	p := newTestPipeline(retriever, nil)
	p.now = func() time.Time { return ref }

	result := p.ProcessQuery(context.Background(), "s1", "what was the price of BTC yesterday")

	assert.Equal(t, core.IntentHistory, result.Intent)
	assert.Equal(t, "CoinGecko API", result.Source)
	assert.Contains(t, result.Response, "On 2026-08-29, the price of BTC was $60,000.00.")
}

func TestProcessQuery_HistoryMissingPoint(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p := newTestPipeline(&fakeRetriever{}, nil)
	p.now = func() time.Time { return ref }

	result := p.ProcessQuery(context.Background(), "s1", "what was the price of BTC yesterday")

	assert.Equal(t, "INSUFFICIENT DATA – I don't have price data for BTC on 2026-08-29.", result.Response)
	assert.Empty(t, result.Source)
}

func TestProcessQuery_HistoryWithoutDate(t *testing.T) {
	p := newTestPipeline(&fakeRetriever{}, nil)

	// "was the price" lands in the history family without naming a date.
	result := p.ProcessQuery(context.Background(), "s1", "what was the price of BTC")

	assert.Equal(t, core.IntentHistory, result.Intent)
	assert.Equal(t, InsufficientDataMessage, result.Response)
}

func TestProcessQuery_RecordsBothTurns(t *testing.T) {
	retriever := &fakeRetriever{
		prices: map[string]core.Result[core.PriceData]{"BTC": providerHit("BTC", 61234.5)},
	}
	sessions := memory.NewSessionStore(memory.DefaultMaxTurns)
	p := New(detector.New(testRegistry), &fakeMetaStore{}, retriever, formatter.New(nil), sessions)

	p.ProcessQuery(context.Background(), "s1", "price of BTC")

	turns := sessions.Get("s1").History(0)
	require.Len(t, turns, 2)
	assert.Equal(t, core.RoleUser, turns[0].Role)
	assert.Equal(t, "price of BTC", turns[0].Content)
	assert.Equal(t, "BTC", turns[0].Entity)
	assert.Equal(t, core.RoleAssistant, turns[1].Role)
	assert.Equal(t, "BTC", turns[1].Entity)
	assert.True(t, strings.Contains(turns[1].Content, "Source: FreeCryptoAPI"))
}

func TestReset(t *testing.T) {
	retriever := &fakeRetriever{
		prices: map[string]core.Result[core.PriceData]{"BTC": providerHit("BTC", 61234.5)},
	}
	p := newTestPipeline(retriever, nil)
	ctx := context.Background()

	p.ProcessQuery(ctx, "s1", "price of BTC")
	p.Reset("s1")

	// Memory is gone, so the pronoun no longer resolves.
	result := p.ProcessQuery(ctx, "s1", "how much is it trading at now")
	assert.Empty(t, result.Entity)
	assert.Equal(t, InsufficientDataMessage, result.Response)
	assert.Equal(t, []string{"s1"}, p.ActiveSessions())
}
