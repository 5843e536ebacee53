// Package model defines the entity types persisted by the acquisition
// pipeline.
//
// Conventions:
//   - Tickers: short uppercase symbols, "." normalized to "-" (BRK.B -> BRK-B)
//   - Dates: time.Time at UTC midnight, date precision only
//   - Nullable ratios: *float64, stored as-is without zero-filling
//   - Source: the provider that produced the row, stamped on every record
package model
