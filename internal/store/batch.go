package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// execBatch sends a batch on tx and drains every result. The caller still
// owns commit/rollback.
func execBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, n int) error {
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	return results.Close()
}
