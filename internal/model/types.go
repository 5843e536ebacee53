package model

import "time"

// PriceBar is one daily OHLCV bar. Natural key: (Ticker, Date).
type PriceBar struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64 // share counts can exceed 32-bit range after splits
	Source string
}

// MetricsKey is the natural key of a MetricsSnapshot.
type MetricsKey struct {
	Ticker       string
	ReportPeriod time.Time
	Period       Period
}

// MetricsSnapshot is one set of financial ratios for a reporting period.
// Natural key: (Ticker, ReportPeriod, Period). Every ratio is independently
// nullable; providers frequently return partial data for older periods.
type MetricsSnapshot struct {
	Ticker       string
	ReportPeriod time.Time
	Period       Period
	Currency     string

	// Valuation
	MarketCap                     *float64
	EnterpriseValue               *float64
	PriceToEarningsRatio          *float64
	PriceToBookRatio              *float64
	PriceToSalesRatio             *float64
	EnterpriseValueToEBITDARatio  *float64
	EnterpriseValueToRevenueRatio *float64
	FreeCashFlowYield             *float64
	PEGRatio                      *float64

	// Profitability
	GrossMargin             *float64
	OperatingMargin         *float64
	NetMargin               *float64
	ReturnOnEquity          *float64
	ReturnOnAssets          *float64
	ReturnOnInvestedCapital *float64

	// Efficiency
	AssetTurnover          *float64
	InventoryTurnover      *float64
	ReceivablesTurnover    *float64
	DaysSalesOutstanding   *float64
	OperatingCycle         *float64
	WorkingCapitalTurnover *float64

	// Liquidity
	CurrentRatio           *float64
	QuickRatio             *float64
	CashRatio              *float64
	OperatingCashFlowRatio *float64

	// Leverage
	DebtToEquity     *float64
	DebtToAssets     *float64
	InterestCoverage *float64

	// Growth
	RevenueGrowth          *float64
	EarningsGrowth         *float64
	BookValueGrowth        *float64
	EarningsPerShareGrowth *float64
	FreeCashFlowGrowth     *float64
	OperatingIncomeGrowth  *float64
	EBITDAGrowth           *float64

	// Per-share
	PayoutRatio          *float64
	EarningsPerShare     *float64
	BookValuePerShare    *float64
	FreeCashFlowPerShare *float64

	Source string
}

// Key returns the snapshot's natural key.
func (m MetricsSnapshot) Key() MetricsKey {
	return MetricsKey{Ticker: m.Ticker, ReportPeriod: m.ReportPeriod, Period: m.Period}
}

// String renders the key in a canonical form safe for use as a map key.
// time.Time is unreliable as a direct map key because of location and
// monotonic-clock differences between parsed and database-scanned values.
func (k MetricsKey) String() string {
	return k.Ticker + "|" + FormatDate(k.ReportPeriod) + "|" + string(k.Period)
}

// NewsArticle is one news item. Natural key: URL — the same article cannot
// be re-attributed to a different ticker or date, so uniqueness is global.
type NewsArticle struct {
	Ticker    string
	Title     string
	Author    string // optional
	Source    string // publisher, not the data provider
	Date      time.Time
	URL       string
	Sentiment string // positive, negative, neutral; optional
	Provider  string // data provider stamp
}

// InsiderKey is the natural key of an InsiderTrade. Provider feeds can
// resend the same filing across pages, so the key is composite.
type InsiderKey struct {
	Ticker          string
	FilingDate      time.Time
	Name            string
	TransactionDate time.Time // zero value when the filing omits it
}

// InsiderTrade is one insider filing row.
type InsiderTrade struct {
	Ticker          string
	Issuer          string // optional
	Name            string
	Title           string // optional
	IsBoardDirector *bool
	FilingDate      time.Time
	TransactionDate *time.Time // may be absent

	TransactionShares        *float64
	TransactionPricePerShare *float64
	TransactionValue         *float64
	SharesOwnedBefore        *float64
	SharesOwnedAfter         *float64
	SecurityTitle            string // optional

	Source string
}

// Key returns the trade's natural key. An absent transaction date maps to
// the zero time so two filings without one still collide on the same key.
func (t InsiderTrade) Key() InsiderKey {
	k := InsiderKey{Ticker: t.Ticker, FilingDate: t.FilingDate, Name: t.Name}
	if t.TransactionDate != nil {
		k.TransactionDate = *t.TransactionDate
	}
	return k
}

// String renders the key in a canonical form safe for use as a map key.
func (k InsiderKey) String() string {
	txn := ""
	if !k.TransactionDate.IsZero() {
		txn = FormatDate(k.TransactionDate)
	}
	return k.Ticker + "|" + FormatDate(k.FilingDate) + "|" + k.Name + "|" + txn
}
