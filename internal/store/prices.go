package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moming2k/marketdata/internal/model"
)

const upsertPriceSQL = `
	INSERT INTO historical_prices (ticker, date, open, high, low, close, volume, data_source)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (ticker, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		data_source = EXCLUDED.data_source
`

// ExistingPriceDates returns the dates in [start, end] that already have a
// stored bar for ticker, keyed as YYYY-MM-DD.
func (s *Store) ExistingPriceDates(ctx context.Context, ticker string, start, end time.Time) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT date FROM historical_prices WHERE ticker = $1 AND date BETWEEN $2 AND $3`,
		ticker, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query price dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]struct{})
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan price date: %w", err)
		}
		dates[model.FormatDate(d)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price dates: %w", err)
	}
	return dates, nil
}

// UpsertPrices writes bars in one transaction, keyed by (ticker, date).
// Returns the number of rows written.
func (s *Store) UpsertPrices(ctx context.Context, bars []model.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin prices tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(upsertPriceSQL, b.Ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.Source)
	}

	if err := execBatch(ctx, tx, batch, len(bars)); err != nil {
		return 0, fmt.Errorf("upsert prices: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit prices tx: %w", err)
	}
	return len(bars), nil
}
