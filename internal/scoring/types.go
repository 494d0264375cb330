package scoring

// =============================================================================
// Model parameters
// =============================================================================

// Sub-score caps of the credit score
const (
	BaseScore         = 500
	MaxHealthScore    = 350.0
	MaxPaymentScore   = 250.0
	MaxSectorScore    = 150.0
	MaxMacroScore     = 100.0
	MaxLiquidityScore = 150.0

	MinCreditScore = 0
	MaxCreditScore = 1000
)

// PDModel holds the fixed logistic coefficients of the PD calculator
type PDModel struct {
	Intercept          float64 `json:"intercept"`
	DebtCoeff          float64 `json:"debt_coeff"`
	LiquidityCoeff     float64 `json:"liquidity_coeff"`
	ProfitabilityCoeff float64 `json:"profitability_coeff"`

	MaxDebtToEquity float64 `json:"max_debt_to_equity"` // d/e cap before weighting
	MaxCurrentRatio float64 `json:"max_current_ratio"`  // current ratio cap before weighting
	MinROA          float64 `json:"min_roa"`            // roa floor before weighting

	// Fallbacks used when no financial metrics are available
	DefaultCurrentRatio float64 `json:"default_current_ratio"`
	DefaultROA          float64 `json:"default_roa"`

	MinPD float64 `json:"min_pd"` // %
	MaxPD float64 `json:"max_pd"` // %
}

// DefaultPDModel returns the production PD coefficients
func DefaultPDModel() PDModel {
	return PDModel{
		Intercept:           -2.5,
		DebtCoeff:           1.2,
		LiquidityCoeff:      -0.8,
		ProfitabilityCoeff:  -15.0,
		MaxDebtToEquity:     5,
		MaxCurrentRatio:     3,
		MinROA:              -0.2,
		DefaultCurrentRatio: 1.5,
		DefaultROA:          0.05,
		MinPD:               0.1,
		MaxPD:               50.0,
	}
}

// LimitPolicy bounds the recommended credit limit
type LimitPolicy struct {
	AssetShare   float64 `json:"asset_share"`   // share of total assets
	RevenueShare float64 `json:"revenue_share"` // share of annual revenue
	MinLimit     float64 `json:"min_limit"`     // TL
	MaxLimit     float64 `json:"max_limit"`     // TL
}

// DefaultLimitPolicy returns the production limit policy (100K ~ 50M TL)
func DefaultLimitPolicy() LimitPolicy {
	return LimitPolicy{
		AssetShare:   0.1,
		RevenueShare: 0.2,
		MinLimit:     100_000,
		MaxLimit:     50_000_000,
	}
}

// MacroScore is the neutral macro-economic sub-score (no indicator feed)
const MacroScore = 80.0

// Breakdown lists the five credit score components
type Breakdown struct {
	FinancialHealth float64 `json:"financial_health"`
	PaymentHistory  float64 `json:"payment_history"`
	Sector          float64 `json:"sector"`
	Macro           float64 `json:"macro"`
	Liquidity       float64 `json:"liquidity"`
}

// Total returns the unclamped score including the base
func (b Breakdown) Total() float64 {
	return BaseScore + b.FinancialHealth + b.PaymentHistory + b.Sector + b.Macro + b.Liquidity
}
