package config

// Default values for optional configuration fields.
const (
	DefaultProviderKind       = ProviderFinancialDatasets
	DefaultProviderTimeoutSec = 30
	DefaultMaxRetries         = 3

	DefaultDBHost   = "localhost"
	DefaultDBPort   = 5432
	DefaultDBName   = "ai_hedge_fund"
	DefaultDBUser   = "postgres"
	DefaultSSLMode  = "prefer"
	DefaultMinConns = 2
	DefaultMaxConns = 10

	// A ticker fetching its full history against a rate-limited provider
	// can legitimately take tens of minutes.
	DefaultTickerTimeoutMin = 50

	DefaultBatchSize       = 10
	DefaultBatchDelaySec   = 2
	DefaultConcurrency     = 1
	DefaultProgressFile    = "data/acquisition_progress.txt"
	DefaultFailedFile      = "data/failed_tickers.txt"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

func (c *Config) applyDefaults() {
	if c.Provider.Kind == "" {
		c.Provider.Kind = DefaultProviderKind
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = DefaultProviderTimeoutSec
	}
	if c.Provider.MaxRetries == 0 {
		c.Provider.MaxRetries = DefaultMaxRetries
	}

	if c.Database.Host == "" {
		c.Database.Host = DefaultDBHost
	}
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.Name == "" {
		c.Database.Name = DefaultDBName
	}
	if c.Database.User == "" {
		c.Database.User = DefaultDBUser
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultSSLMode
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}

	if c.Acquire.TickerTimeoutMinutes == 0 {
		c.Acquire.TickerTimeoutMinutes = DefaultTickerTimeoutMin
	}

	if c.Scheduler.BatchSize == 0 {
		c.Scheduler.BatchSize = DefaultBatchSize
	}
	if c.Scheduler.BatchDelaySeconds == 0 {
		c.Scheduler.BatchDelaySeconds = DefaultBatchDelaySec
	}
	if c.Scheduler.Concurrency == 0 {
		c.Scheduler.Concurrency = DefaultConcurrency
	}

	if c.Progress.File == "" {
		c.Progress.File = DefaultProgressFile
	}
	if c.Progress.FailedFile == "" {
		c.Progress.FailedFile = DefaultFailedFile
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
