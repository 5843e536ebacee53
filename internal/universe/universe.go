package universe

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/moming2k/marketdata/internal/model"
)

// Company is one row of the universe file.
type Company struct {
	Ticker    string  `csv:"ticker"`
	Name      string  `csv:"company_name"`
	MarketCap float64 `csv:"market_cap"`
}

// Load reads the universe CSV at path. Tickers are normalized, blank rows
// dropped, and duplicates collapsed to their first occurrence so file order
// (market-cap rank) is preserved.
func Load(path string) ([]Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	var rows []Company
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse universe file: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	companies := make([]Company, 0, len(rows))
	for _, row := range rows {
		ticker := model.NormalizeTicker(row.Ticker)
		if ticker == "" {
			continue
		}
		if _, ok := seen[ticker]; ok {
			continue
		}
		seen[ticker] = struct{}{}
		row.Ticker = ticker
		companies = append(companies, row)
	}

	if len(companies) == 0 {
		return nil, fmt.Errorf("universe file %s has no tickers", path)
	}
	return companies, nil
}

// Tickers extracts the ticker column in file order.
func Tickers(companies []Company) []string {
	tickers := make([]string, len(companies))
	for i, c := range companies {
		tickers[i] = c.Ticker
	}
	return tickers
}
