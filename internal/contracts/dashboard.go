package contracts

import "time"

// DashboardStats is the aggregate shown on the dashboard
type DashboardStats struct {
	TotalCompanies      int               `json:"total_companies"`
	ActiveCompanies     int               `json:"active_companies"`
	TotalAlerts         int               `json:"total_alerts"`
	UnreadAlerts        int               `json:"unread_alerts"`
	CriticalAlerts      int               `json:"critical_alerts"`
	TotalAnalyses       int               `json:"total_analyses"`
	TotalCreditExposure float64           `json:"total_credit_exposure"`
	AverageRiskScore    float64           `json:"average_risk_score"` // 1 decimal
	AveragePDScore      float64           `json:"average_pd_score"`   // 2 decimals
	HighRiskCompanies   int               `json:"high_risk_companies"`
	RiskDistribution    map[RiskLevel]int `json:"risk_distribution"`
	GeneratedAt         time.Time         `json:"generated_at"`
}
