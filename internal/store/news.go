package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/moming2k/marketdata/internal/model"
)

const upsertNewsSQL = `
	INSERT INTO company_news (ticker, title, author, source, date, url, sentiment, data_source)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (url) DO UPDATE SET
		ticker = EXCLUDED.ticker,
		title = EXCLUDED.title,
		author = EXCLUDED.author,
		source = EXCLUDED.source,
		date = EXCLUDED.date,
		sentiment = EXCLUDED.sentiment,
		data_source = EXCLUDED.data_source
`

// ExistingNewsURLs returns which of the given URLs are already stored.
// The probe is bounded by the candidate set rather than the whole table.
func (s *Store) ExistingNewsURLs(ctx context.Context, urls []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(urls) == 0 {
		return existing, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT url FROM company_news WHERE url = ANY($1)`,
		urls,
	)
	if err != nil {
		return nil, fmt.Errorf("query news urls: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan news url: %w", err)
		}
		existing[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate news urls: %w", err)
	}
	return existing, nil
}

// UpsertNews writes articles in one transaction, keyed by URL. Returns the
// number of rows written.
func (s *Store) UpsertNews(ctx context.Context, articles []model.NewsArticle) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin news tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, a := range articles {
		batch.Queue(upsertNewsSQL, a.Ticker, a.Title, a.Author, a.Source, a.Date, a.URL, a.Sentiment, a.Provider)
	}

	if err := execBatch(ctx, tx, batch, len(articles)); err != nil {
		return 0, fmt.Errorf("upsert news: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit news tx: %w", err)
	}
	return len(articles), nil
}
