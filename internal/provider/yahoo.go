package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/moming2k/marketdata/internal/model"
)

// DefaultYahooURL is the public Yahoo Finance query endpoint.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// yahooNewsLimit caps the search endpoint's news results.
const yahooNewsLimit = 50

// YahooClient talks to the free Yahoo Finance endpoints. It has no insider
// trade coverage; InsiderTrades always returns an empty result.
type YahooClient struct {
	client
}

// NewYahooClient creates a client for the free provider.
func NewYahooClient(opts ...ClientOption) *YahooClient {
	return &YahooClient{
		client: newClient(DefaultYahooURL, opts...),
	}
}

// Name implements Provider.
func (c *YahooClient) Name() string { return "yahoo_finance" }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Prices implements Provider using the daily chart endpoint. Days with
// missing quote values (halts, partial sessions) are skipped.
func (c *YahooClient) Prices(ctx context.Context, ticker string, start, end time.Time) ([]model.PriceBar, error) {
	query := url.Values{}
	query.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive; push it past end-of-day so the last bar is kept.
	query.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	query.Set("interval", "1d")
	query.Set("events", "history")

	var resp yahooChartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(ticker), query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", ticker, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("fetch prices for %s: %s: %s", ticker, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	// Yahoo occasionally ships quote arrays shorter than the timestamp
	// array; that is a malformed payload, not a data gap.
	n := len(result.Timestamp)
	if len(quote.Open) < n || len(quote.High) < n || len(quote.Low) < n ||
		len(quote.Close) < n || len(quote.Volume) < n {
		return nil, fmt.Errorf("malformed chart payload for %s: quote arrays shorter than timestamps", ticker)
	}

	bars := make([]model.PriceBar, 0, n)
	for i, ts := range result.Timestamp {
		if quote.Open[i] == nil || quote.High[i] == nil ||
			quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}

		day := time.Unix(ts, 0).UTC()
		date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

		var volume int64
		if quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		bars = append(bars, model.PriceBar{
			Ticker: ticker,
			Date:   date,
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
			Source: c.Name(),
		})
	}
	return bars, nil
}

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			DefaultKeyStatistics struct {
				EnterpriseValue     rawValue `json:"enterpriseValue"`
				ForwardPE           rawValue `json:"forwardPE"`
				PriceToBook         rawValue `json:"priceToBook"`
				PEGRatio            rawValue `json:"pegRatio"`
				EnterpriseToRevenue rawValue `json:"enterpriseToRevenue"`
				EnterpriseToEbitda  rawValue `json:"enterpriseToEbitda"`
				TrailingEps         rawValue `json:"trailingEps"`
				BookValue           rawValue `json:"bookValue"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				GrossMargins      rawValue `json:"grossMargins"`
				OperatingMargins  rawValue `json:"operatingMargins"`
				ProfitMargins     rawValue `json:"profitMargins"`
				ReturnOnEquity    rawValue `json:"returnOnEquity"`
				ReturnOnAssets    rawValue `json:"returnOnAssets"`
				CurrentRatio      rawValue `json:"currentRatio"`
				QuickRatio        rawValue `json:"quickRatio"`
				DebtToEquity      rawValue `json:"debtToEquity"`
				RevenueGrowth     rawValue `json:"revenueGrowth"`
				EarningsGrowth    rawValue `json:"earningsGrowth"`
				FinancialCurrency string   `json:"financialCurrency"`
			} `json:"financialData"`
			SummaryDetail struct {
				MarketCap    rawValue `json:"marketCap"`
				TrailingPE   rawValue `json:"trailingPE"`
				PayoutRatio  rawValue `json:"payoutRatio"`
				PriceToSales rawValue `json:"priceToSalesTrailing12Months"`
			} `json:"summaryDetail"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// Metrics implements Provider. Yahoo exposes current fundamentals only, so
// the result is a single trailing-twelve-month snapshot dated asOf; ratios
// Yahoo does not publish stay nil.
func (c *YahooClient) Metrics(ctx context.Context, ticker string, asOf time.Time) ([]model.MetricsSnapshot, error) {
	query := url.Values{}
	query.Set("modules", "defaultKeyStatistics,financialData,summaryDetail")

	var resp yahooQuoteSummaryResponse
	if err := c.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(ticker), query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch metrics for %s: %w", ticker, err)
	}

	if len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}
	r := resp.QuoteSummary.Result[0]

	currency := r.FinancialData.FinancialCurrency
	if currency == "" {
		currency = "USD"
	}

	snap := model.MetricsSnapshot{
		Ticker:       ticker,
		ReportPeriod: asOf,
		Period:       model.PeriodTTM,
		Currency:     currency,

		MarketCap:                     r.SummaryDetail.MarketCap.Raw,
		EnterpriseValue:               r.DefaultKeyStatistics.EnterpriseValue.Raw,
		PriceToEarningsRatio:          r.SummaryDetail.TrailingPE.Raw,
		PriceToBookRatio:              r.DefaultKeyStatistics.PriceToBook.Raw,
		PriceToSalesRatio:             r.SummaryDetail.PriceToSales.Raw,
		EnterpriseValueToEBITDARatio:  r.DefaultKeyStatistics.EnterpriseToEbitda.Raw,
		EnterpriseValueToRevenueRatio: r.DefaultKeyStatistics.EnterpriseToRevenue.Raw,
		PEGRatio:                      r.DefaultKeyStatistics.PEGRatio.Raw,
		GrossMargin:                   r.FinancialData.GrossMargins.Raw,
		OperatingMargin:               r.FinancialData.OperatingMargins.Raw,
		NetMargin:                     r.FinancialData.ProfitMargins.Raw,
		ReturnOnEquity:                r.FinancialData.ReturnOnEquity.Raw,
		ReturnOnAssets:                r.FinancialData.ReturnOnAssets.Raw,
		CurrentRatio:                  r.FinancialData.CurrentRatio.Raw,
		QuickRatio:                    r.FinancialData.QuickRatio.Raw,
		DebtToEquity:                  r.FinancialData.DebtToEquity.Raw,
		RevenueGrowth:                 r.FinancialData.RevenueGrowth.Raw,
		EarningsGrowth:                r.FinancialData.EarningsGrowth.Raw,
		PayoutRatio:                   r.SummaryDetail.PayoutRatio.Raw,
		EarningsPerShare:              r.DefaultKeyStatistics.TrailingEps.Raw,
		BookValuePerShare:             r.DefaultKeyStatistics.BookValue.Raw,

		Source: c.Name(),
	}

	return []model.MetricsSnapshot{snap}, nil
}

type yahooSearchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// News implements Provider using the search endpoint, filtered to the
// requested date range. Yahoo publishes no sentiment; the field stays empty.
func (c *YahooClient) News(ctx context.Context, ticker string, start, end time.Time) ([]model.NewsArticle, error) {
	query := url.Values{}
	query.Set("q", ticker)
	query.Set("newsCount", strconv.Itoa(yahooNewsLimit))
	query.Set("quotesCount", "0")

	var resp yahooSearchResponse
	if err := c.getJSON(ctx, "/v1/finance/search", query, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch news for %s: %w", ticker, err)
	}

	rangeEnd := end.AddDate(0, 0, 1)

	articles := make([]model.NewsArticle, 0, len(resp.News))
	for _, n := range resp.News {
		if n.Link == "" {
			continue
		}
		published := time.Unix(n.ProviderPublishTime, 0).UTC()
		if published.Before(start) || !published.Before(rangeEnd) {
			continue
		}
		date := time.Date(published.Year(), published.Month(), published.Day(), 0, 0, 0, 0, time.UTC)

		articles = append(articles, model.NewsArticle{
			Ticker:   ticker,
			Title:    n.Title,
			Source:   n.Publisher,
			Date:     date,
			URL:      n.Link,
			Provider: c.Name(),
		})
	}
	return articles, nil
}

// InsiderTrades implements Provider. Yahoo has no insider filing feed, so
// every ticker reports an empty result, which the pipeline records as zero
// rows rather than a failure.
func (c *YahooClient) InsiderTrades(ctx context.Context, ticker string, start, end time.Time) ([]model.InsiderTrade, error) {
	c.logger.Debug("insider trades not available from yahoo finance", "ticker", ticker)
	return nil, nil
}
