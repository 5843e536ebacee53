package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/moming2k/marketdata/internal/model"
)

// The DO UPDATE list enumerates every non-key column so a forced refresh is
// exhaustive; adding a column to the table means adding it here and in the
// model, which keeps updates reviewable field by field.
const upsertMetricsSQL = `
	INSERT INTO financial_metrics (
		ticker, report_period, period, currency,
		market_cap, enterprise_value, price_to_earnings_ratio, price_to_book_ratio,
		price_to_sales_ratio, enterprise_value_to_ebitda_ratio, enterprise_value_to_revenue_ratio,
		free_cash_flow_yield, peg_ratio,
		gross_margin, operating_margin, net_margin, return_on_equity, return_on_assets,
		return_on_invested_capital,
		asset_turnover, inventory_turnover, receivables_turnover, days_sales_outstanding,
		operating_cycle, working_capital_turnover,
		current_ratio, quick_ratio, cash_ratio, operating_cash_flow_ratio,
		debt_to_equity, debt_to_assets, interest_coverage,
		revenue_growth, earnings_growth, book_value_growth, earnings_per_share_growth,
		free_cash_flow_growth, operating_income_growth, ebitda_growth,
		payout_ratio, earnings_per_share, book_value_per_share, free_cash_flow_per_share,
		data_source
	)
	VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9, $10, $11, $12, $13,
		$14, $15, $16, $17, $18, $19,
		$20, $21, $22, $23, $24, $25,
		$26, $27, $28, $29,
		$30, $31, $32,
		$33, $34, $35, $36, $37, $38, $39,
		$40, $41, $42, $43,
		$44
	)
	ON CONFLICT (ticker, report_period, period) DO UPDATE SET
		currency = EXCLUDED.currency,
		market_cap = EXCLUDED.market_cap,
		enterprise_value = EXCLUDED.enterprise_value,
		price_to_earnings_ratio = EXCLUDED.price_to_earnings_ratio,
		price_to_book_ratio = EXCLUDED.price_to_book_ratio,
		price_to_sales_ratio = EXCLUDED.price_to_sales_ratio,
		enterprise_value_to_ebitda_ratio = EXCLUDED.enterprise_value_to_ebitda_ratio,
		enterprise_value_to_revenue_ratio = EXCLUDED.enterprise_value_to_revenue_ratio,
		free_cash_flow_yield = EXCLUDED.free_cash_flow_yield,
		peg_ratio = EXCLUDED.peg_ratio,
		gross_margin = EXCLUDED.gross_margin,
		operating_margin = EXCLUDED.operating_margin,
		net_margin = EXCLUDED.net_margin,
		return_on_equity = EXCLUDED.return_on_equity,
		return_on_assets = EXCLUDED.return_on_assets,
		return_on_invested_capital = EXCLUDED.return_on_invested_capital,
		asset_turnover = EXCLUDED.asset_turnover,
		inventory_turnover = EXCLUDED.inventory_turnover,
		receivables_turnover = EXCLUDED.receivables_turnover,
		days_sales_outstanding = EXCLUDED.days_sales_outstanding,
		operating_cycle = EXCLUDED.operating_cycle,
		working_capital_turnover = EXCLUDED.working_capital_turnover,
		current_ratio = EXCLUDED.current_ratio,
		quick_ratio = EXCLUDED.quick_ratio,
		cash_ratio = EXCLUDED.cash_ratio,
		operating_cash_flow_ratio = EXCLUDED.operating_cash_flow_ratio,
		debt_to_equity = EXCLUDED.debt_to_equity,
		debt_to_assets = EXCLUDED.debt_to_assets,
		interest_coverage = EXCLUDED.interest_coverage,
		revenue_growth = EXCLUDED.revenue_growth,
		earnings_growth = EXCLUDED.earnings_growth,
		book_value_growth = EXCLUDED.book_value_growth,
		earnings_per_share_growth = EXCLUDED.earnings_per_share_growth,
		free_cash_flow_growth = EXCLUDED.free_cash_flow_growth,
		operating_income_growth = EXCLUDED.operating_income_growth,
		ebitda_growth = EXCLUDED.ebitda_growth,
		payout_ratio = EXCLUDED.payout_ratio,
		earnings_per_share = EXCLUDED.earnings_per_share,
		book_value_per_share = EXCLUDED.book_value_per_share,
		free_cash_flow_per_share = EXCLUDED.free_cash_flow_per_share,
		data_source = EXCLUDED.data_source
`

// ExistingMetricsKeys returns every stored metrics key for ticker, in the
// canonical model.MetricsKey string form.
func (s *Store) ExistingMetricsKeys(ctx context.Context, ticker string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT report_period, period FROM financial_metrics WHERE ticker = $1`,
		ticker,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var reportPeriod time.Time
		var period string
		if err := rows.Scan(&reportPeriod, &period); err != nil {
			return nil, fmt.Errorf("scan metrics key: %w", err)
		}
		k := model.MetricsKey{Ticker: ticker, ReportPeriod: reportPeriod, Period: model.Period(period)}
		keys[k.String()] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics keys: %w", err)
	}
	return keys, nil
}

// UpsertMetrics writes snapshots in one transaction, keyed by
// (ticker, report_period, period). Returns the number of rows written.
func (s *Store) UpsertMetrics(ctx context.Context, snaps []model.MetricsSnapshot) (int, error) {
	if len(snaps) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin metrics tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, m := range snaps {
		batch.Queue(upsertMetricsSQL,
			m.Ticker, m.ReportPeriod, string(m.Period), m.Currency,
			m.MarketCap, m.EnterpriseValue, m.PriceToEarningsRatio, m.PriceToBookRatio,
			m.PriceToSalesRatio, m.EnterpriseValueToEBITDARatio, m.EnterpriseValueToRevenueRatio,
			m.FreeCashFlowYield, m.PEGRatio,
			m.GrossMargin, m.OperatingMargin, m.NetMargin, m.ReturnOnEquity, m.ReturnOnAssets,
			m.ReturnOnInvestedCapital,
			m.AssetTurnover, m.InventoryTurnover, m.ReceivablesTurnover, m.DaysSalesOutstanding,
			m.OperatingCycle, m.WorkingCapitalTurnover,
			m.CurrentRatio, m.QuickRatio, m.CashRatio, m.OperatingCashFlowRatio,
			m.DebtToEquity, m.DebtToAssets, m.InterestCoverage,
			m.RevenueGrowth, m.EarningsGrowth, m.BookValueGrowth, m.EarningsPerShareGrowth,
			m.FreeCashFlowGrowth, m.OperatingIncomeGrowth, m.EBITDAGrowth,
			m.PayoutRatio, m.EarningsPerShare, m.BookValuePerShare, m.FreeCashFlowPerShare,
			m.Source,
		)
	}

	if err := execBatch(ctx, tx, batch, len(snaps)); err != nil {
		return 0, fmt.Errorf("upsert metrics: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit metrics tx: %w", err)
	}
	return len(snaps), nil
}
