package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
// It must pass before any network or storage activity begins.
func (c *Config) Validate() error {
	switch c.Provider.Kind {
	case ProviderFinancialDatasets:
		if c.Provider.APIKey == "" {
			return errors.New("FINANCIAL_DATASETS_API_KEY is required for the financial_datasets provider (or set USE_YAHOO_FINANCE=true)")
		}
	case ProviderYahooFinance:
		// Free provider, no key required.
	default:
		return fmt.Errorf("unknown provider kind %q", c.Provider.Kind)
	}

	if err := c.Database.validate(); err != nil {
		return err
	}

	if c.Acquire.TickerTimeoutMinutes < 1 {
		return errors.New("acquire.ticker_timeout_minutes must be >= 1")
	}
	if c.Scheduler.BatchSize < 1 {
		return errors.New("scheduler.batch_size must be >= 1")
	}
	if c.Scheduler.Concurrency < 1 {
		return errors.New("scheduler.concurrency must be >= 1")
	}
	if c.Scheduler.TickersPerMinute < 0 {
		return errors.New("scheduler.tickers_per_minute must be >= 0")
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

func (db *DBConfig) validate() error {
	if db.URL != "" {
		return nil
	}
	if db.Host == "" {
		return errors.New("database host is required")
	}
	if db.Name == "" {
		return errors.New("database name is required")
	}
	if db.User == "" {
		return errors.New("database user is required")
	}
	if db.Password == "" {
		return errors.New("PostgreSQL password is required: set POSTGRES_PASSWORD or provide DATABASE_URL")
	}
	if db.MaxConns < 1 {
		return errors.New("database max_conns must be >= 1")
	}
	if db.MinConns < 0 {
		return errors.New("database min_conns must be >= 0")
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("database min_conns (%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns)
	}
	return nil
}
