package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/finrisk/internal/contracts"
)

// =============================================================================
// Engine - pure calculator
// =============================================================================

// Engine scores companies from their balance sheet and optional metrics
// ⭐ SSOT: credit score, PD, credit limit and risk factor formulas live only here
// Loading companies/metrics and persisting results is the caller's job.
type Engine struct {
	sectors SectorTable
	pd      PDModel
	limits  LimitPolicy
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithSectorTable replaces the built-in sector table
func WithSectorTable(t SectorTable) EngineOption {
	return func(e *Engine) { e.sectors = t }
}

// WithPDModel replaces the PD coefficients
func WithPDModel(m PDModel) EngineOption {
	return func(e *Engine) { e.pd = m }
}

// WithLimitPolicy replaces the credit limit bounds
func WithLimitPolicy(p LimitPolicy) EngineOption {
	return func(e *Engine) { e.limits = p }
}

// NewEngine creates an engine with the production model
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		sectors: DefaultSectorTable(),
		pd:      DefaultPDModel(),
		limits:  DefaultLimitPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sectors returns the sector table in use
func (e *Engine) Sectors() SectorTable {
	return e.sectors
}

// ModelVersion identifies the scoring model for stored analyses
// Format: v1/<sector table version>/<first 12 hex chars of the table hash>
func (e *Engine) ModelVersion() string {
	return fmt.Sprintf("v1/%s/%s", e.sectors.Version(), e.sectors.Hash()[:12])
}

// =============================================================================
// Credit score
// =============================================================================

// Breakdown returns the five sub-scores of the credit score
func (e *Engine) Breakdown(c *contracts.Company, m *contracts.FinancialMetric) Breakdown {
	return Breakdown{
		FinancialHealth: financialHealthScore(c, m),
		PaymentHistory:  paymentHistoryScore(c),
		Sector:          sectorScore(e.sectors.Multiplier(c.Sector)),
		Macro:           MacroScore,
		Liquidity:       liquidityScore(c, m),
	}
}

// CreditScore returns the credit score in [0, 1000]
// The sum is truncated toward zero before clamping.
func (e *Engine) CreditScore(c *contracts.Company, m *contracts.FinancialMetric) int {
	score := int(e.Breakdown(c, m).Total())
	if score < MinCreditScore {
		return MinCreditScore
	}
	if score > MaxCreditScore {
		return MaxCreditScore
	}
	return score
}

// =============================================================================
// Probability of default
// =============================================================================

// PDScore returns the probability of default in percent, within [MinPD, MaxPD]
// The sector multiplier is applied before clamping.
func (e *Engine) PDScore(c *contracts.Company, m *contracts.FinancialMetric) float64 {
	debtToEquity, currentRatio, roa := e.pd.pdInputs(c, m)
	p := logistic(e.pd.logit(debtToEquity, currentRatio, roa))
	pd := p * e.sectors.Multiplier(c.Sector) * 100
	return clamp(pd, e.pd.MinPD, e.pd.MaxPD)
}

// =============================================================================
// Recommended credit limit
// =============================================================================

// RecommendedCreditLimit returns the suggested limit in TL
func (e *Engine) RecommendedCreditLimit(c *contracts.Company, m *contracts.FinancialMetric) float64 {
	base := math.Min(c.Assets*e.limits.AssetShare, c.Revenue*e.limits.RevenueShare)
	score := e.CreditScore(c, m)
	limit := base * RiskMultiplier(score) / e.sectors.Multiplier(c.Sector)
	return clamp(limit, e.limits.MinLimit, e.limits.MaxLimit)
}

// =============================================================================
// Assessment
// =============================================================================

// Assessment bundles every derived risk field of a company
type Assessment struct {
	CreditScore            int                       `json:"credit_score"`
	PDScore                float64                   `json:"pd_score"`
	RiskLevel              contracts.RiskLevel       `json:"risk_level"`
	FinancialHealth        contracts.FinancialHealth `json:"financial_health"`
	RecommendedCreditLimit float64                   `json:"recommended_credit_limit"`
}

// Assess computes score, PD, both bands and the recommended limit
func (e *Engine) Assess(c *contracts.Company, m *contracts.FinancialMetric) Assessment {
	score := e.CreditScore(c, m)
	pd := e.PDScore(c, m)
	return Assessment{
		CreditScore:            score,
		PDScore:                pd,
		RiskLevel:              RiskLevelFor(score),
		FinancialHealth:        FinancialHealthFor(pd),
		RecommendedCreditLimit: e.RecommendedCreditLimit(c, m),
	}
}

// Apply writes the assessment onto the company's risk fields
// Credit limit is left untouched.
func (a Assessment) Apply(c *contracts.Company) {
	c.RiskScore = a.CreditScore
	c.PDScore = a.PDScore
	c.RiskLevel = a.RiskLevel
	c.FinancialHealth = a.FinancialHealth
}
