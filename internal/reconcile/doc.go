// Package reconcile decides which fetched rows reach the database.
//
// Without force-refresh, rows whose natural key already exists are skipped:
// prices diff per calendar day, the other entities per composite key. With
// force-refresh everything fetched is upserted and the store's ON CONFLICT
// clause overwrites the non-key columns.
package reconcile
