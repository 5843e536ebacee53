package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moming2k/marketdata/internal/config"
	"github.com/moming2k/marketdata/internal/model"
)

// Provider fetches typed record sets for one ticker. Implementations must
// return an empty slice, not an error, when the ticker simply has no data.
type Provider interface {
	Prices(ctx context.Context, ticker string, start, end time.Time) ([]model.PriceBar, error)
	Metrics(ctx context.Context, ticker string, asOf time.Time) ([]model.MetricsSnapshot, error)
	News(ctx context.Context, ticker string, start, end time.Time) ([]model.NewsArticle, error)
	InsiderTrades(ctx context.Context, ticker string, start, end time.Time) ([]model.InsiderTrade, error)

	// Name identifies the provider; it is stamped into every persisted row.
	Name() string
}

// New constructs the provider selected by the configuration.
func New(cfg config.ProviderConfig, logger *slog.Logger) (Provider, error) {
	opts := []ClientOption{
		WithTimeout(cfg.Timeout()),
		WithRetries(cfg.MaxRetries, time.Second),
		WithLogger(logger),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}

	switch cfg.Kind {
	case config.ProviderFinancialDatasets:
		return NewFinancialDatasetsClient(cfg.APIKey, opts...), nil
	case config.ProviderYahooFinance:
		return NewYahooClient(opts...), nil
	}
	return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
}
