package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/moming2k/marketdata/internal/model"
)

const (
	// DefaultFinancialDatasetsURL is the production API endpoint.
	DefaultFinancialDatasetsURL = "https://api.financialdatasets.ai"

	// fetchLimit caps paginated endpoints; matches the upstream maximum.
	fetchLimit = 1000

	// metricsLimit bounds the number of reporting periods per snapshot call.
	metricsLimit = 10
)

// FinancialDatasetsClient talks to the paid Financial Datasets API.
type FinancialDatasetsClient struct {
	client
	apiKey string
}

// NewFinancialDatasetsClient creates a client for the paid provider.
func NewFinancialDatasetsClient(apiKey string, opts ...ClientOption) *FinancialDatasetsClient {
	return &FinancialDatasetsClient{
		client: newClient(DefaultFinancialDatasetsURL, opts...),
		apiKey: apiKey,
	}
}

// Name implements Provider.
func (c *FinancialDatasetsClient) Name() string { return "financial_datasets" }

func (c *FinancialDatasetsClient) header() http.Header {
	h := http.Header{}
	h.Set("X-API-KEY", c.apiKey)
	return h
}

type fdPrice struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Prices implements Provider.
func (c *FinancialDatasetsClient) Prices(ctx context.Context, ticker string, start, end time.Time) ([]model.PriceBar, error) {
	query := url.Values{}
	query.Set("ticker", ticker)
	query.Set("start_date", model.FormatDate(start))
	query.Set("end_date", model.FormatDate(end))
	query.Set("interval", "day")
	query.Set("interval_multiplier", "1")

	var resp struct {
		Prices []fdPrice `json:"prices"`
	}
	if err := c.getJSON(ctx, "/prices/", query, c.header(), &resp); err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", ticker, err)
	}

	bars := make([]model.PriceBar, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		date, err := model.ParseDate(p.Time)
		if err != nil {
			return nil, fmt.Errorf("malformed price row for %s: %w", ticker, err)
		}
		bars = append(bars, model.PriceBar{
			Ticker: ticker,
			Date:   date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
			Source: c.Name(),
		})
	}
	return bars, nil
}

type fdMetrics struct {
	Ticker       string `json:"ticker"`
	ReportPeriod string `json:"report_period"`
	Period       string `json:"period"`
	Currency     string `json:"currency"`

	MarketCap                     *float64 `json:"market_cap"`
	EnterpriseValue               *float64 `json:"enterprise_value"`
	PriceToEarningsRatio          *float64 `json:"price_to_earnings_ratio"`
	PriceToBookRatio              *float64 `json:"price_to_book_ratio"`
	PriceToSalesRatio             *float64 `json:"price_to_sales_ratio"`
	EnterpriseValueToEBITDARatio  *float64 `json:"enterprise_value_to_ebitda_ratio"`
	EnterpriseValueToRevenueRatio *float64 `json:"enterprise_value_to_revenue_ratio"`
	FreeCashFlowYield             *float64 `json:"free_cash_flow_yield"`
	PEGRatio                      *float64 `json:"peg_ratio"`
	GrossMargin                   *float64 `json:"gross_margin"`
	OperatingMargin               *float64 `json:"operating_margin"`
	NetMargin                     *float64 `json:"net_margin"`
	ReturnOnEquity                *float64 `json:"return_on_equity"`
	ReturnOnAssets                *float64 `json:"return_on_assets"`
	ReturnOnInvestedCapital       *float64 `json:"return_on_invested_capital"`
	AssetTurnover                 *float64 `json:"asset_turnover"`
	InventoryTurnover             *float64 `json:"inventory_turnover"`
	ReceivablesTurnover           *float64 `json:"receivables_turnover"`
	DaysSalesOutstanding          *float64 `json:"days_sales_outstanding"`
	OperatingCycle                *float64 `json:"operating_cycle"`
	WorkingCapitalTurnover        *float64 `json:"working_capital_turnover"`
	CurrentRatio                  *float64 `json:"current_ratio"`
	QuickRatio                    *float64 `json:"quick_ratio"`
	CashRatio                     *float64 `json:"cash_ratio"`
	OperatingCashFlowRatio        *float64 `json:"operating_cash_flow_ratio"`
	DebtToEquity                  *float64 `json:"debt_to_equity"`
	DebtToAssets                  *float64 `json:"debt_to_assets"`
	InterestCoverage              *float64 `json:"interest_coverage"`
	RevenueGrowth                 *float64 `json:"revenue_growth"`
	EarningsGrowth                *float64 `json:"earnings_growth"`
	BookValueGrowth               *float64 `json:"book_value_growth"`
	EarningsPerShareGrowth        *float64 `json:"earnings_per_share_growth"`
	FreeCashFlowGrowth            *float64 `json:"free_cash_flow_growth"`
	OperatingIncomeGrowth         *float64 `json:"operating_income_growth"`
	EBITDAGrowth                  *float64 `json:"ebitda_growth"`
	PayoutRatio                   *float64 `json:"payout_ratio"`
	EarningsPerShare              *float64 `json:"earnings_per_share"`
	BookValuePerShare             *float64 `json:"book_value_per_share"`
	FreeCashFlowPerShare          *float64 `json:"free_cash_flow_per_share"`
}

// Metrics implements Provider. The asOf date bounds the newest reporting
// period returned.
func (c *FinancialDatasetsClient) Metrics(ctx context.Context, ticker string, asOf time.Time) ([]model.MetricsSnapshot, error) {
	query := url.Values{}
	query.Set("ticker", ticker)
	query.Set("report_period_lte", model.FormatDate(asOf))
	query.Set("period", "ttm")
	query.Set("limit", strconv.Itoa(metricsLimit))

	var resp struct {
		FinancialMetrics []fdMetrics `json:"financial_metrics"`
	}
	if err := c.getJSON(ctx, "/financial-metrics/", query, c.header(), &resp); err != nil {
		return nil, fmt.Errorf("fetch metrics for %s: %w", ticker, err)
	}

	snaps := make([]model.MetricsSnapshot, 0, len(resp.FinancialMetrics))
	for _, m := range resp.FinancialMetrics {
		snap, err := m.toModel(ticker, c.Name())
		if err != nil {
			return nil, fmt.Errorf("malformed metrics row for %s: %w", ticker, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (m fdMetrics) toModel(ticker, source string) (model.MetricsSnapshot, error) {
	reportPeriod, err := model.ParseDate(m.ReportPeriod)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	period, err := model.ParsePeriod(m.Period)
	if err != nil {
		return model.MetricsSnapshot{}, err
	}

	return model.MetricsSnapshot{
		Ticker:       ticker,
		ReportPeriod: reportPeriod,
		Period:       period,
		Currency:     m.Currency,

		MarketCap:                     m.MarketCap,
		EnterpriseValue:               m.EnterpriseValue,
		PriceToEarningsRatio:          m.PriceToEarningsRatio,
		PriceToBookRatio:              m.PriceToBookRatio,
		PriceToSalesRatio:             m.PriceToSalesRatio,
		EnterpriseValueToEBITDARatio:  m.EnterpriseValueToEBITDARatio,
		EnterpriseValueToRevenueRatio: m.EnterpriseValueToRevenueRatio,
		FreeCashFlowYield:             m.FreeCashFlowYield,
		PEGRatio:                      m.PEGRatio,
		GrossMargin:                   m.GrossMargin,
		OperatingMargin:               m.OperatingMargin,
		NetMargin:                     m.NetMargin,
		ReturnOnEquity:                m.ReturnOnEquity,
		ReturnOnAssets:                m.ReturnOnAssets,
		ReturnOnInvestedCapital:       m.ReturnOnInvestedCapital,
		AssetTurnover:                 m.AssetTurnover,
		InventoryTurnover:             m.InventoryTurnover,
		ReceivablesTurnover:           m.ReceivablesTurnover,
		DaysSalesOutstanding:          m.DaysSalesOutstanding,
		OperatingCycle:                m.OperatingCycle,
		WorkingCapitalTurnover:        m.WorkingCapitalTurnover,
		CurrentRatio:                  m.CurrentRatio,
		QuickRatio:                    m.QuickRatio,
		CashRatio:                     m.CashRatio,
		OperatingCashFlowRatio:        m.OperatingCashFlowRatio,
		DebtToEquity:                  m.DebtToEquity,
		DebtToAssets:                  m.DebtToAssets,
		InterestCoverage:              m.InterestCoverage,
		RevenueGrowth:                 m.RevenueGrowth,
		EarningsGrowth:                m.EarningsGrowth,
		BookValueGrowth:               m.BookValueGrowth,
		EarningsPerShareGrowth:        m.EarningsPerShareGrowth,
		FreeCashFlowGrowth:            m.FreeCashFlowGrowth,
		OperatingIncomeGrowth:         m.OperatingIncomeGrowth,
		EBITDAGrowth:                  m.EBITDAGrowth,
		PayoutRatio:                   m.PayoutRatio,
		EarningsPerShare:              m.EarningsPerShare,
		BookValuePerShare:             m.BookValuePerShare,
		FreeCashFlowPerShare:          m.FreeCashFlowPerShare,

		Source: source,
	}, nil
}

type fdNews struct {
	Ticker    string `json:"ticker"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Source    string `json:"source"`
	Date      string `json:"date"`
	URL       string `json:"url"`
	Sentiment string `json:"sentiment"`
}

// News implements Provider.
func (c *FinancialDatasetsClient) News(ctx context.Context, ticker string, start, end time.Time) ([]model.NewsArticle, error) {
	query := url.Values{}
	query.Set("ticker", ticker)
	query.Set("start_date", model.FormatDate(start))
	query.Set("end_date", model.FormatDate(end))
	query.Set("limit", strconv.Itoa(fetchLimit))

	var resp struct {
		News []fdNews `json:"news"`
	}
	if err := c.getJSON(ctx, "/news/", query, c.header(), &resp); err != nil {
		return nil, fmt.Errorf("fetch news for %s: %w", ticker, err)
	}

	articles := make([]model.NewsArticle, 0, len(resp.News))
	for _, n := range resp.News {
		date, err := model.ParseDate(n.Date)
		if err != nil {
			return nil, fmt.Errorf("malformed news row for %s: %w", ticker, err)
		}
		articles = append(articles, model.NewsArticle{
			Ticker:    ticker,
			Title:     n.Title,
			Author:    n.Author,
			Source:    n.Source,
			Date:      date,
			URL:       n.URL,
			Sentiment: n.Sentiment,
			Provider:  c.Name(),
		})
	}
	return articles, nil
}

type fdInsiderTrade struct {
	Ticker          string `json:"ticker"`
	Issuer          string `json:"issuer"`
	Name            string `json:"name"`
	Title           string `json:"title"`
	IsBoardDirector *bool  `json:"is_board_director"`
	FilingDate      string `json:"filing_date"`
	TransactionDate string `json:"transaction_date"`

	TransactionShares        *float64 `json:"transaction_shares"`
	TransactionPricePerShare *float64 `json:"transaction_price_per_share"`
	TransactionValue         *float64 `json:"transaction_value"`
	SharesOwnedBefore        *float64 `json:"shares_owned_before_transaction"`
	SharesOwnedAfter         *float64 `json:"shares_owned_after_transaction"`
	SecurityTitle            string   `json:"security_title"`
}

// InsiderTrades implements Provider.
func (c *FinancialDatasetsClient) InsiderTrades(ctx context.Context, ticker string, start, end time.Time) ([]model.InsiderTrade, error) {
	query := url.Values{}
	query.Set("ticker", ticker)
	query.Set("filing_date_gte", model.FormatDate(start))
	query.Set("filing_date_lte", model.FormatDate(end))
	query.Set("limit", strconv.Itoa(fetchLimit))

	var resp struct {
		InsiderTrades []fdInsiderTrade `json:"insider_trades"`
	}
	if err := c.getJSON(ctx, "/insider-trades/", query, c.header(), &resp); err != nil {
		return nil, fmt.Errorf("fetch insider trades for %s: %w", ticker, err)
	}

	trades := make([]model.InsiderTrade, 0, len(resp.InsiderTrades))
	for _, t := range resp.InsiderTrades {
		filingDate, err := model.ParseDate(t.FilingDate)
		if err != nil {
			return nil, fmt.Errorf("malformed insider trade row for %s: %w", ticker, err)
		}

		var txnDate *time.Time
		if t.TransactionDate != "" {
			d, err := model.ParseDate(t.TransactionDate)
			if err != nil {
				return nil, fmt.Errorf("malformed insider trade row for %s: %w", ticker, err)
			}
			txnDate = &d
		}

		trades = append(trades, model.InsiderTrade{
			Ticker:          ticker,
			Issuer:          t.Issuer,
			Name:            t.Name,
			Title:           t.Title,
			IsBoardDirector: t.IsBoardDirector,
			FilingDate:      filingDate,
			TransactionDate: txnDate,

			TransactionShares:        t.TransactionShares,
			TransactionPricePerShare: t.TransactionPricePerShare,
			TransactionValue:         t.TransactionValue,
			SharesOwnedBefore:        t.SharesOwnedBefore,
			SharesOwnedAfter:         t.SharesOwnedAfter,
			SecurityTitle:            t.SecurityTitle,

			Source: c.Name(),
		})
	}
	return trades, nil
}
