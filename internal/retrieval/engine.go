package retrieval

import (
	"context"
	"errors"
	"time"

	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/pkg/log"
)

// providerConfidence tags facts that came from an external provider;
// only store-fresh facts carry 1.0.
const providerConfidence = 0.9

const (
	DefaultPriceTTL = 5 * time.Minute
	DefaultNewsTTL  = 60 * time.Minute
)

type Config struct {
	PriceTTL time.Duration
	NewsTTL  time.Duration
}

// Engine resolves facts cache-first: a fresh store record is returned
// without any network call; otherwise providers are tried in priority
// order, the winning result persisted before it is returned. Provider
// and persistence errors never escape the engine — they degrade to the
// tier's failure outcome.
type Engine struct {
	store   core.KnowledgeStore
	price   []core.PriceProvider
	news    core.NewsProvider
	history core.HistoryProvider

	priceTTL time.Duration
	newsTTL  time.Duration
	now      func() time.Time
}

func NewEngine(store core.KnowledgeStore, price []core.PriceProvider, news core.NewsProvider, history core.HistoryProvider, cfg Config) *Engine {
	if cfg.PriceTTL <= 0 {
		cfg.PriceTTL = DefaultPriceTTL
	}
	if cfg.NewsTTL <= 0 {
		cfg.NewsTTL = DefaultNewsTTL
	}
	return &Engine{
		store:    store,
		price:    price,
		news:     news,
		history:  history,
		priceTTL: cfg.PriceTTL,
		newsTTL:  cfg.NewsTTL,
		now:      time.Now,
	}
}

// Price resolves the current price/market-cap fact for a symbol.
func (e *Engine) Price(ctx context.Context, symbol string, forceRefresh bool) core.Result[core.PriceData] {
	logger := log.FromCtx(ctx)

	if !forceRefresh {
		snap, err := e.store.Snapshot(ctx, symbol)
		switch {
		case err == nil && e.now().Sub(snap.FetchedAt) < e.priceTTL:
			return core.Hit(snap.PriceData, core.SourceKnowledgeBase, snap.FetchedAt, 1.0)
		case err != nil && !errors.Is(err, core.ErrNotFound):
			logger.Warn().Err(err).Str("symbol", symbol).Msg("snapshot read failed, falling through to providers")
		}
	}

	for _, provider := range e.price {
		data, err := provider.FetchPrice(ctx, symbol)
		if err != nil {
			logger.Warn().Err(err).Str("provider", provider.Name()).Str("symbol", symbol).Msg("price fetch failed, trying next tier")
			continue
		}

		fetchedAt := e.now()
		snap := core.PriceSnapshot{PriceData: data, FetchedAt: fetchedAt}
		if err := e.store.SaveSnapshot(ctx, snap); err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("snapshot write failed, serving unpersisted result")
		}
		return core.Hit(data, provider.Name(), fetchedAt, providerConfidence)
	}

	return core.Miss[core.PriceData](e.now())
}

// News resolves the headline bundle for a symbol. There is no fallback
// provider for news.
func (e *Engine) News(ctx context.Context, symbol string) core.Result[[]core.NewsItem] {
	logger := log.FromCtx(ctx)

	bundle, err := e.store.News(ctx, symbol)
	switch {
	case err == nil && e.now().Sub(bundle.FetchedAt) < e.newsTTL:
		return core.Hit(bundle.Items, core.SourceKnowledgeBase, bundle.FetchedAt, 1.0)
	case err != nil && !errors.Is(err, core.ErrNotFound):
		logger.Warn().Err(err).Str("symbol", symbol).Msg("news read failed, falling through to provider")
	}

	items, err := e.news.FetchNews(ctx, symbol)
	if err != nil {
		logger.Warn().Err(err).Str("provider", e.news.Name()).Str("symbol", symbol).Msg("news fetch failed")
		return core.Miss[[]core.NewsItem](e.now())
	}

	fetchedAt := e.now()
	if err := e.store.SaveNews(ctx, symbol, core.NewsBundle{Items: items, FetchedAt: fetchedAt}); err != nil {
		logger.Error().Err(err).Str("symbol", symbol).Msg("news write failed, serving unpersisted result")
	}
	return core.Hit(items, e.news.Name(), fetchedAt, providerConfidence)
}

// History resolves the price fact for an exact (symbol, date).
// Historical facts do not go stale, so a cache hit is definitive.
func (e *Engine) History(ctx context.Context, symbol, date string) core.Result[core.HistoryPoint] {
	logger := log.FromCtx(ctx)

	point, err := e.store.History(ctx, symbol, date)
	if err == nil {
		return core.Hit(point, core.SourceKnowledgeBase, e.now(), 1.0)
	}
	if !errors.Is(err, core.ErrNotFound) {
		logger.Warn().Err(err).Str("symbol", symbol).Str("date", date).Msg("history read failed, falling through to provider")
	}

	point, err = e.history.FetchHistory(ctx, symbol, date)
	if err != nil {
		logger.Warn().Err(err).Str("provider", e.history.Name()).Str("symbol", symbol).Str("date", date).Msg("history fetch failed")
		return core.Miss[core.HistoryPoint](e.now())
	}

	if err := e.store.SaveHistory(ctx, point); err != nil {
		logger.Error().Err(err).Str("symbol", symbol).Str("date", date).Msg("history write failed, serving unpersisted result")
	}
	return core.Hit(point, e.history.Name(), e.now(), providerConfidence)
}
