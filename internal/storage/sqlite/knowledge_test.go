package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/coinbot/internal/core"
)

func newTestRepo(t *testing.T) *KnowledgeRepo {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "coinbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewKnowledgeRepo(db)
}

func TestKnowledgeRepo_SeededRegistry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	coins, err := repo.Coins(ctx)
	require.NoError(t, err)
	require.Len(t, coins, 10)

	symbols := make(map[string]string, len(coins))
	for _, c := range coins {
		symbols[c.Symbol] = c.Name
	}
	assert.Equal(t, "Bitcoin", symbols["BTC"])
	assert.Equal(t, "Ripple", symbols["XRP"])
	assert.Equal(t, "Polygon", symbols["MATIC"])
}

func TestKnowledgeRepo_Metadata(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	meta, err := repo.Metadata(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", meta.Name)
	assert.Equal(t, 2009, meta.LaunchYear)
	assert.Equal(t, "Proof of Work", meta.Consensus)
	assert.Equal(t, "Satoshi Nakamoto", meta.Creator)
	assert.Equal(t, float64(21000000), meta.MaxSupply)

	// ETH has no supply cap; the nullable column scans to zero.
	meta, err = repo.Metadata(ctx, "ETH")
	require.NoError(t, err)
	assert.Zero(t, meta.MaxSupply)

	_, err = repo.Metadata(ctx, "DOGE")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestKnowledgeRepo_SnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Snapshot(ctx, "BTC")
	require.ErrorIs(t, err, core.ErrNotFound)

	fetchedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	snap := core.PriceSnapshot{
		PriceData: core.PriceData{
			Symbol: "BTC", Name: "Bitcoin", Price: 61234.5,
			MarketCap: 1.2e12, Change24h: 2.1, Volume24h: 3.4e10, Rank: 1,
		},
		FetchedAt: fetchedAt,
	}
	require.NoError(t, repo.SaveSnapshot(ctx, snap))

	got, err := repo.Snapshot(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, snap.PriceData, got.PriceData)
	assert.True(t, got.FetchedAt.Equal(fetchedAt))

	// A later fetch overwrites the whole snapshot.
	snap.Price = 62000
	snap.FetchedAt = fetchedAt.Add(5 * time.Minute)
	require.NoError(t, repo.SaveSnapshot(ctx, snap))

	got, err = repo.Snapshot(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, float64(62000), got.Price)
	assert.True(t, got.FetchedAt.Equal(snap.FetchedAt))
}

func TestKnowledgeRepo_NewsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.News(ctx, "BTC")
	require.ErrorIs(t, err, core.ErrNotFound)

	bundle := core.NewsBundle{
		Items: []core.NewsItem{
			{Title: "ETF inflows continue", URL: "https://example.com/1", Source: "CoinDesk", Date: "2026-08-30"},
			{Title: "Hash rate at all-time high", URL: "https://example.com/2", Source: "The Block", Date: "2026-08-29"},
		},
		FetchedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveNews(ctx, "BTC", bundle))

	got, err := repo.News(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, bundle.Items, got.Items)
	assert.True(t, got.FetchedAt.Equal(bundle.FetchedAt))
}

func TestKnowledgeRepo_HistoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.History(ctx, "BTC", "2024-05-01")
	require.ErrorIs(t, err, core.ErrNotFound)

	point := core.HistoryPoint{Symbol: "BTC", Date: "2024-05-01", Price: 58000, MarketCap: 1.1e12}
	require.NoError(t, repo.SaveHistory(ctx, point))

	got, err := repo.History(ctx, "BTC", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, point, got)

	// Same (symbol, date) updates in place rather than duplicating.
	point.Price = 58100
	require.NoError(t, repo.SaveHistory(ctx, point))

	got, err = repo.History(ctx, "BTC", "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, float64(58100), got.Price)

	var count int
	err = repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM price_history WHERE symbol = ? AND date = ?`, "BTC", "2024-05-01",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewDB_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coinbot.db")
	ctx := context.Background()

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an existing database must not reapply the seed.
	db, err = NewDB(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM coins`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestKnowledgeRepo_ErrNotFoundIsDistinct(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Snapshot(context.Background(), "DOGE")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, errors.Is(err, sql.ErrNoRows))
}
