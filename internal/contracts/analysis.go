package contracts

import "time"

// FactorStatus grades a single risk factor
type FactorStatus string

const (
	FactorGood   FactorStatus = "good"
	FactorMedium FactorStatus = "medium"
	FactorPoor   FactorStatus = "poor"
)

// RiskFactor is one entry of a risk factor breakdown
type RiskFactor struct {
	Score  float64      `json:"score"`
	Weight float64      `json:"weight"`
	Status FactorStatus `json:"status"`
}

// RiskFactors maps factor name → factor (transient, rebuilt per request)
type RiskFactors map[string]RiskFactor

// AnalysisType selects what an analysis computes
type AnalysisType string

const (
	AnalysisCredit     AnalysisType = "credit"
	AnalysisPD         AnalysisType = "pd"
	AnalysisStressTest AnalysisType = "stress_test"
)

// Valid reports whether t is a known analysis type
func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisCredit, AnalysisPD, AnalysisStressTest:
		return true
	}
	return false
}

// AnalysisStatus tracks a persisted analysis
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisInProgress AnalysisStatus = "in_progress"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Valid reports whether s is a known analysis status
func (s AnalysisStatus) Valid() bool {
	switch s {
	case AnalysisPending, AnalysisInProgress, AnalysisCompleted, AnalysisFailed:
		return true
	}
	return false
}

// StressScenarios maps scenario name → PD (%)
type StressScenarios map[string]float64

// RiskAnalysis is a persisted analysis run
type RiskAnalysis struct {
	ID                     int64           `json:"id"`
	RunID                  string          `json:"run_id"`
	CompanyID              int64           `json:"company_id"`
	AnalystID              *int64          `json:"analyst_id,omitempty"`
	AnalysisType           AnalysisType    `json:"analysis_type"`
	CreditScore            int             `json:"credit_score"`
	PDScore                float64         `json:"pd_score"`
	RecommendedCreditLimit float64         `json:"recommended_credit_limit"`
	RiskFactors            RiskFactors     `json:"risk_factors"`
	Scenarios              StressScenarios `json:"scenarios,omitempty"`
	ModelVersion           string          `json:"model_version"`
	ConfidenceLevel        float64         `json:"confidence_level"`
	Notes                  string          `json:"notes,omitempty"`
	RiskMitigationActions  string          `json:"risk_mitigation_actions,omitempty"`
	Status                 AnalysisStatus  `json:"status"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              *time.Time      `json:"updated_at,omitempty"`
}

// AnalysisFilter narrows analysis listings
type AnalysisFilter struct {
	CompanyID    int64
	AnalysisType AnalysisType
	Offset       int
	Limit        int
}
