package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by the knowledge store when no record exists
// for the requested key.
var ErrNotFound = errors.New("not found")

// KnowledgeStore is the persistent, keyed-by-symbol fact store.
// Reads may run concurrently; a write for a symbol is applied
// atomically with respect to other writes for that symbol.
type KnowledgeStore interface {
	// Coins enumerates the registry (symbol + display name).
	Coins(ctx context.Context) ([]Coin, error)

	// Metadata returns the static metadata for a symbol.
	Metadata(ctx context.Context, symbol string) (CoinMetadata, error)

	// Snapshot returns the latest cached price snapshot for a symbol.
	Snapshot(ctx context.Context, symbol string) (PriceSnapshot, error)
	// SaveSnapshot overwrites the snapshot for snap.Symbol.
	SaveSnapshot(ctx context.Context, snap PriceSnapshot) error

	// News returns the cached news bundle for a symbol.
	News(ctx context.Context, symbol string) (NewsBundle, error)
	// SaveNews overwrites the news bundle for a symbol.
	SaveNews(ctx context.Context, symbol string, bundle NewsBundle) error

	// History returns the cached point for an exact (symbol, date).
	History(ctx context.Context, symbol, date string) (HistoryPoint, error)
	// SaveHistory writes a point, overwriting any existing entry for
	// the same (symbol, date).
	SaveHistory(ctx context.Context, point HistoryPoint) error
}
