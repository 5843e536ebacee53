package config

import (
	"fmt"
	"net/url"
	"time"
)

// Provider kinds.
const (
	ProviderFinancialDatasets = "financial_datasets"
	ProviderYahooFinance      = "yahoo_finance"
)

// Config is the root configuration for an acquisition run.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Database  DBConfig        `yaml:"database"`
	Acquire   AcquireConfig   `yaml:"acquire"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Progress  ProgressConfig  `yaml:"progress"`
	Log       LogConfig       `yaml:"log"`
}

// ProviderConfig selects and tunes the external data source.
type ProviderConfig struct {
	Kind           string `yaml:"kind"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the per-request HTTP timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	// URL is a full connection string; when set it takes precedence over
	// the component fields.
	URL string `yaml:"url"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`

	MinConns int `yaml:"min_conns"`
	MaxConns int `yaml:"max_conns"`
}

// ConnString builds the pool connection string. Credentials go through
// url.URL so userinfo escaping is correct; query escaping would turn a
// space in the password into a literal plus.
func (db DBConfig) ConnString() string {
	if db.URL != "" {
		return db.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(db.User, db.Password),
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     "/" + db.Name,
		RawQuery: "sslmode=" + db.SSLMode,
	}
	return u.String()
}

// AcquireConfig bounds a single ticker attempt.
type AcquireConfig struct {
	TickerTimeoutMinutes int `yaml:"ticker_timeout_minutes"`
}

// TickerTimeout returns the deadline applied to one ticker's attempt.
func (a AcquireConfig) TickerTimeout() time.Duration {
	return time.Duration(a.TickerTimeoutMinutes) * time.Minute
}

// SchedulerConfig tunes batching and pacing.
type SchedulerConfig struct {
	BatchSize         int `yaml:"batch_size"`
	BatchDelaySeconds int `yaml:"batch_delay_seconds"`
	Concurrency       int `yaml:"concurrency"`

	// TickersPerMinute caps the shared token bucket; 0 means unlimited
	// (pacing then comes only from the inter-batch delay).
	TickersPerMinute int `yaml:"tickers_per_minute"`
}

// BatchDelay returns the pause inserted between batches.
func (s SchedulerConfig) BatchDelay() time.Duration {
	return time.Duration(s.BatchDelaySeconds) * time.Second
}

// ProgressConfig names the durable checkpoint files.
type ProgressConfig struct {
	File       string `yaml:"file"`
	FailedFile string `yaml:"failed_file"`
}

// LogConfig tunes structured logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}
