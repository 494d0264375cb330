package contracts

import "time"

// FinancialMetric is a per-period financial statement snapshot
// Immutable once stored; corrections are stored as a new period row.
type FinancialMetric struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Period    string `json:"period"` // e.g. "2024-Q1", "2024-12"

	// Income statement
	Revenue         float64 `json:"revenue"`
	NetIncome       float64 `json:"net_income"`
	GrossProfit     float64 `json:"gross_profit"`
	OperatingIncome float64 `json:"operating_income"`
	EBITDA          float64 `json:"ebitda"`

	// Balance sheet
	TotalAssets        float64 `json:"total_assets"`
	CurrentAssets      float64 `json:"current_assets"`
	TotalLiabilities   float64 `json:"total_liabilities"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	Equity             float64 `json:"equity"`

	// Cash flow
	OperatingCashFlow float64 `json:"operating_cash_flow"`
	InvestingCashFlow float64 `json:"investing_cash_flow"`
	FinancingCashFlow float64 `json:"financing_cash_flow"`
	FreeCashFlow      float64 `json:"free_cash_flow"`

	// Ratios
	DebtToEquity float64 `json:"debt_to_equity"`
	CurrentRatio float64 `json:"current_ratio"`
	QuickRatio   float64 `json:"quick_ratio"`
	ROA          float64 `json:"roa"` // Return on Assets
	ROE          float64 `json:"roe"` // Return on Equity

	CreatedAt time.Time `json:"created_at"`
}
