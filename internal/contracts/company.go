package contracts

import "time"

// RiskLevel is the banding of a credit score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskLevels lists every risk level, safest first
var RiskLevels = []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical}

// Valid reports whether l is a known risk level
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// FinancialHealth is the banding of a PD score
type FinancialHealth string

const (
	HealthExcellent FinancialHealth = "excellent"
	HealthGood      FinancialHealth = "good"
	HealthAverage   FinancialHealth = "average"
	HealthPoor      FinancialHealth = "poor"
	HealthCritical  FinancialHealth = "critical"
)

// Valid reports whether h is a known health band
func (h FinancialHealth) Valid() bool {
	switch h {
	case HealthExcellent, HealthGood, HealthAverage, HealthPoor, HealthCritical:
		return true
	}
	return false
}

// CompanyStatus is the lifecycle status of a company
type CompanyStatus string

const (
	StatusActive     CompanyStatus = "active"
	StatusInactive   CompanyStatus = "inactive"
	StatusMonitoring CompanyStatus = "monitoring"
)

// Valid reports whether s is a known status
func (s CompanyStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusMonitoring:
		return true
	}
	return false
}

// Company is a scored counterparty
// ⭐ SSOT: risk fields (RiskScore, PDScore, RiskLevel, FinancialHealth) are written only by the scoring core
type Company struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	TaxID  string `json:"tax_id"` // VKN, 10 digits
	Sector string `json:"sector"`

	// Financial snapshot (TL)
	Revenue     float64 `json:"revenue"`
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	CreditLimit float64 `json:"credit_limit"`

	// Derived risk fields
	RiskScore       int             `json:"risk_score"` // 0 ~ 1000
	RiskLevel       RiskLevel       `json:"risk_level"`
	PDScore         float64         `json:"pd_score"` // % (0.1 ~ 50.0)
	FinancialHealth FinancialHealth `json:"financial_health"`

	Status       CompanyStatus `json:"status"`
	LastAnalysis *time.Time    `json:"last_analysis,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
	CreatedBy    *int64        `json:"created_by,omitempty"`
}

// Equity returns assets minus liabilities
func (c *Company) Equity() float64 {
	return c.Assets - c.Liabilities
}

// DebtToEquity returns liabilities / equity, or nil when equity is not positive
func (c *Company) DebtToEquity() *float64 {
	equity := c.Equity()
	if equity <= 0 {
		return nil
	}
	ratio := c.Liabilities / equity
	return &ratio
}

// CompanyWithMetrics is the detail view of a company
type CompanyWithMetrics struct {
	Company
	Equity                 float64          `json:"equity"`
	DebtToEquityRatio      *float64         `json:"debt_to_equity_ratio"`
	LatestFinancialMetrics *FinancialMetric `json:"latest_financial_metrics"`
}

// CompanyFilter narrows company listings
type CompanyFilter struct {
	Search    string // matches name, tax id or sector (case-insensitive)
	RiskLevel RiskLevel
	Sector    string
	Status    CompanyStatus
	Offset    int
	Limit     int
}
