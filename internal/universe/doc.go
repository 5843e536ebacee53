// Package universe loads the ticker universe from a CSV file.
//
// The file carries ticker, company_name and market_cap columns, sorted by
// market cap descending so the most liquid names are acquired first.
package universe
