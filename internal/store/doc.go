// Package store provides PostgreSQL persistence for acquired market data.
//
// Every write path is an atomic upsert keyed by the entity's natural key
// (INSERT ... ON CONFLICT ... DO UPDATE), batched with pgx.Batch inside one
// transaction per ticker/entity. The existence-check-then-write race of a
// naive implementation cannot occur: concurrent writers of the same key
// serialize on the conflict target.
//
// Expected unique indexes:
//   - historical_prices (ticker, date)
//   - financial_metrics (ticker, report_period, period)
//   - company_news (url)
//   - insider_trades (ticker, filing_date, name, transaction_date)
//     NULLS NOT DISTINCT, so refiled trades without a transaction date
//     still collide
package store
