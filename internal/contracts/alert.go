package contracts

import "time"

// AlertType classifies a risk alert
type AlertType string

const (
	AlertCreditLimit            AlertType = "credit_limit"
	AlertPDIncrease             AlertType = "pd_increase"
	AlertPaymentDelay           AlertType = "payment_delay"
	AlertFinancialDeterioration AlertType = "financial_deterioration"
	AlertSectorRisk             AlertType = "sector_risk"
	AlertMacroEconomic          AlertType = "macro_economic"
)

// Valid reports whether t is a known alert type
func (t AlertType) Valid() bool {
	switch t {
	case AlertCreditLimit, AlertPDIncrease, AlertPaymentDelay,
		AlertFinancialDeterioration, AlertSectorRisk, AlertMacroEconomic:
		return true
	}
	return false
}

// Severity is the urgency of an alert
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// RiskAlert is an append-only alert row
// ⭐ SSOT: alerts are never deleted, only marked read/resolved
type RiskAlert struct {
	ID             int64      `json:"id"`
	CompanyID      int64      `json:"company_id"`
	AlertType      AlertType  `json:"alert_type"`
	Severity       Severity   `json:"severity"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ThresholdValue string     `json:"threshold_value,omitempty"`
	CurrentValue   string     `json:"current_value,omitempty"`
	IsRead         bool       `json:"is_read"`
	IsResolved     bool       `json:"is_resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     *int64     `json:"resolved_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AlertWithCompany is a listing row joined with the company name
type AlertWithCompany struct {
	RiskAlert
	CompanyName string `json:"company_name"`
}

// AlertFilter narrows alert listings
type AlertFilter struct {
	UnreadOnly bool
	Unresolved bool
	Severity   Severity
	AlertType  AlertType
	CompanyID  int64
	Offset     int
	Limit      int
}

// AlertStats summarises the alert table
type AlertStats struct {
	TotalAlerts      int `json:"total_alerts"`
	UnreadAlerts     int `json:"unread_alerts"`
	CriticalAlerts   int `json:"critical_alerts"`
	UnresolvedAlerts int `json:"unresolved_alerts"`
}
