package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moming2k/marketdata/internal/model"
)

// The conflict target relies on the insider_trades unique index being
// declared NULLS NOT DISTINCT, so two filings without a transaction date
// still match.
const upsertInsiderSQL = `
	INSERT INTO insider_trades (
		ticker, issuer, name, title, is_board_director, filing_date, transaction_date,
		transaction_shares, transaction_price_per_share, transaction_value,
		shares_owned_before_transaction, shares_owned_after_transaction,
		security_title, data_source
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (ticker, filing_date, name, transaction_date) DO UPDATE SET
		issuer = EXCLUDED.issuer,
		title = EXCLUDED.title,
		is_board_director = EXCLUDED.is_board_director,
		transaction_shares = EXCLUDED.transaction_shares,
		transaction_price_per_share = EXCLUDED.transaction_price_per_share,
		transaction_value = EXCLUDED.transaction_value,
		shares_owned_before_transaction = EXCLUDED.shares_owned_before_transaction,
		shares_owned_after_transaction = EXCLUDED.shares_owned_after_transaction,
		security_title = EXCLUDED.security_title,
		data_source = EXCLUDED.data_source
`

// ExistingInsiderKeys returns every stored insider-trade key for ticker
// whose filing date falls in [start, end], in canonical model.InsiderKey
// string form.
func (s *Store) ExistingInsiderKeys(ctx context.Context, ticker string, start, end time.Time) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT filing_date, name, transaction_date
		 FROM insider_trades
		 WHERE ticker = $1 AND filing_date BETWEEN $2 AND $3`,
		ticker, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("query insider keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var filingDate time.Time
		var name string
		var txnDate *time.Time
		if err := rows.Scan(&filingDate, &name, &txnDate); err != nil {
			return nil, fmt.Errorf("scan insider key: %w", err)
		}
		k := model.InsiderKey{Ticker: ticker, FilingDate: filingDate, Name: name}
		if txnDate != nil {
			k.TransactionDate = *txnDate
		}
		keys[k.String()] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insider keys: %w", err)
	}
	return keys, nil
}

// UpsertInsiderTrades writes trades in one transaction, keyed by
// (ticker, filing_date, name, transaction_date). Returns the number of rows
// written.
func (s *Store) UpsertInsiderTrades(ctx context.Context, trades []model.InsiderTrade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insider tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(upsertInsiderSQL,
			t.Ticker, t.Issuer, t.Name, t.Title, t.IsBoardDirector, t.FilingDate, t.TransactionDate,
			t.TransactionShares, t.TransactionPricePerShare, t.TransactionValue,
			t.SharesOwnedBefore, t.SharesOwnedAfter,
			t.SecurityTitle, t.Source,
		)
	}

	if err := execBatch(ctx, tx, batch, len(trades)); err != nil {
		return 0, fmt.Errorf("upsert insider trades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insider tx: %w", err)
	}
	return len(trades), nil
}
