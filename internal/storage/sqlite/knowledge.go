package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandevgo/coinbot/internal/core"
)

// KnowledgeRepo is the sqlite-backed knowledge store: the seeded coin
// registry plus the cached price, news and history facts.
type KnowledgeRepo struct {
	db *sql.DB
}

var _ core.KnowledgeStore = (*KnowledgeRepo)(nil)

func NewKnowledgeRepo(db *sql.DB) *KnowledgeRepo {
	return &KnowledgeRepo{db: db}
}

func (r *KnowledgeRepo) Coins(ctx context.Context) ([]core.Coin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, name FROM coins ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to list coins: %w", err)
	}
	defer rows.Close()

	var coins []core.Coin
	for rows.Next() {
		var c core.Coin
		if err := rows.Scan(&c.Symbol, &c.Name); err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return coins, rows.Err()
}

func (r *KnowledgeRepo) Metadata(ctx context.Context, symbol string) (core.CoinMetadata, error) {
	var (
		meta        core.CoinMetadata
		description sql.NullString
		launchYear  sql.NullInt64
		consensus   sql.NullString
		chainType   sql.NullString
		creator     sql.NullString
		maxSupply   sql.NullFloat64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT symbol, name, description, launch_year, consensus, chain_type, creator, max_supply
		 FROM coins WHERE symbol = ?`, symbol,
	).Scan(&meta.Symbol, &meta.Name, &description, &launchYear, &consensus, &chainType, &creator, &maxSupply)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CoinMetadata{}, core.ErrNotFound
	}
	if err != nil {
		return core.CoinMetadata{}, fmt.Errorf("failed to load metadata: %w", err)
	}

	meta.Description = description.String
	meta.LaunchYear = int(launchYear.Int64)
	meta.Consensus = consensus.String
	meta.ChainType = chainType.String
	meta.Creator = creator.String
	meta.MaxSupply = maxSupply.Float64
	return meta, nil
}

func (r *KnowledgeRepo) Snapshot(ctx context.Context, symbol string) (core.PriceSnapshot, error) {
	var s core.PriceSnapshot

	err := r.db.QueryRowContext(ctx,
		`SELECT symbol, name, price, market_cap, change_24h, volume_24h, rank, fetched_at
		 FROM price_snapshots WHERE symbol = ?`, symbol,
	).Scan(&s.Symbol, &s.Name, &s.Price, &s.MarketCap, &s.Change24h, &s.Volume24h, &s.Rank, &s.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PriceSnapshot{}, core.ErrNotFound
	}
	if err != nil {
		return core.PriceSnapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return s, nil
}

func (r *KnowledgeRepo) SaveSnapshot(ctx context.Context, snap core.PriceSnapshot) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO price_snapshots (symbol, name, price, market_cap, change_24h, volume_24h, rank, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET
		   name = excluded.name,
		   price = excluded.price,
		   market_cap = excluded.market_cap,
		   change_24h = excluded.change_24h,
		   volume_24h = excluded.volume_24h,
		   rank = excluded.rank,
		   fetched_at = excluded.fetched_at`,
		snap.Symbol, snap.Name, snap.Price, snap.MarketCap, snap.Change24h, snap.Volume24h, snap.Rank, snap.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *KnowledgeRepo) News(ctx context.Context, symbol string) (core.NewsBundle, error) {
	var (
		bundle core.NewsBundle
		items  string
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT items, fetched_at FROM news_bundles WHERE symbol = ?`, symbol,
	).Scan(&items, &bundle.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewsBundle{}, core.ErrNotFound
	}
	if err != nil {
		return core.NewsBundle{}, fmt.Errorf("failed to load news: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &bundle.Items); err != nil {
		return core.NewsBundle{}, fmt.Errorf("failed to decode news items: %w", err)
	}
	return bundle, nil
}

func (r *KnowledgeRepo) SaveNews(ctx context.Context, symbol string, bundle core.NewsBundle) error {
	items, err := json.Marshal(bundle.Items)
	if err != nil {
		return fmt.Errorf("failed to encode news items: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO news_bundles (symbol, items, fetched_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET
		   items = excluded.items,
		   fetched_at = excluded.fetched_at`,
		symbol, string(items), bundle.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save news: %w", err)
	}
	return nil
}

func (r *KnowledgeRepo) History(ctx context.Context, symbol, date string) (core.HistoryPoint, error) {
	var point core.HistoryPoint

	err := r.db.QueryRowContext(ctx,
		`SELECT symbol, date, price, market_cap FROM price_history WHERE symbol = ? AND date = ?`,
		symbol, date,
	).Scan(&point.Symbol, &point.Date, &point.Price, &point.MarketCap)
	if errors.Is(err, sql.ErrNoRows) {
		return core.HistoryPoint{}, core.ErrNotFound
	}
	if err != nil {
		return core.HistoryPoint{}, fmt.Errorf("failed to load history: %w", err)
	}
	return point, nil
}

func (r *KnowledgeRepo) SaveHistory(ctx context.Context, point core.HistoryPoint) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO price_history (symbol, date, price, market_cap)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(symbol, date) DO UPDATE SET
		   price = excluded.price,
		   market_cap = excluded.market_cap`,
		point.Symbol, point.Date, point.Price, point.MarketCap,
	)
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
