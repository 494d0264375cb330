package contracts

import (
	"context"
	"errors"
	"time"
)

// ⭐ SSOT: repository interfaces are defined only here

var (
	// ErrNotFound is returned by repositories when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateTaxID is returned when a company with the same tax id exists
	ErrDuplicateTaxID = errors.New("company with this tax id already exists")
	// ErrValidation wraps every input validation failure
	ErrValidation = errors.New("validation failed")
)

// CompanyRepository manages company rows
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id int64) (*Company, error)
	GetByTaxID(ctx context.Context, taxID string) (*Company, error)
	List(ctx context.Context, filter CompanyFilter) ([]*Company, error)
	Update(ctx context.Context, company *Company) error
	// ListIDsByStatus returns ids of companies whose status is one of statuses
	ListIDsByStatus(ctx context.Context, statuses ...CompanyStatus) ([]int64, error)
}

// FinancialMetricRepository manages financial statement snapshots
type FinancialMetricRepository interface {
	Create(ctx context.Context, metric *FinancialMetric) error
	// LatestByCompany returns the most recently stored snapshot, or ErrNotFound
	LatestByCompany(ctx context.Context, companyID int64) (*FinancialMetric, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*FinancialMetric, error)
}

// AlertStore is what the alert rule evaluator needs from persistence
type AlertStore interface {
	// ExistsSince reports whether an alert of type t was created for companyID after since
	ExistsSince(ctx context.Context, companyID int64, t AlertType, since time.Time) (bool, error)
	// Create inserts alert and fills ID and CreatedAt
	Create(ctx context.Context, alert *RiskAlert) error
	// MarkRead sets is_read; false when the alert does not exist
	MarkRead(ctx context.Context, alertID int64) (bool, error)
	// Resolve sets is_resolved/resolved_at/resolved_by; false when the alert does not exist
	Resolve(ctx context.Context, alertID int64, userID *int64, at time.Time) (bool, error)
}

// AlertRepository is the full alert persistence surface
type AlertRepository interface {
	AlertStore
	List(ctx context.Context, filter AlertFilter) ([]*AlertWithCompany, error)
	Stats(ctx context.Context) (*AlertStats, error)
}

// AnalysisRepository manages persisted analyses
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *RiskAnalysis) error
	GetByID(ctx context.Context, id int64) (*RiskAnalysis, error)
	List(ctx context.Context, filter AnalysisFilter) ([]*RiskAnalysis, error)
	// Update writes the analyst-editable fields and sets UpdatedAt, or returns ErrNotFound
	Update(ctx context.Context, analysis *RiskAnalysis) error
}

// StatsRepository computes dashboard aggregates
type StatsRepository interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}
