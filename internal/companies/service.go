package companies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/scoring"
	"github.com/wonny/finrisk/internal/validation"
	"github.com/wonny/finrisk/pkg/logger"
)

// AlertChecker evaluates alert rules after a company's risk fields change
type AlertChecker interface {
	CheckAndGenerate(ctx context.Context, c *contracts.Company) ([]*contracts.RiskAlert, error)
}

// Service owns the company lifecycle and keeps its risk fields in sync
// ⭐ SSOT: the only writer of company risk fields
type Service struct {
	companies contracts.CompanyRepository
	metrics   contracts.FinancialMetricRepository
	engine    *scoring.Engine
	alerts    AlertChecker
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a company service
func NewService(
	companies contracts.CompanyRepository,
	metrics contracts.FinancialMetricRepository,
	engine *scoring.Engine,
	alerts AlertChecker,
	log *logger.Logger,
) *Service {
	return &Service{
		companies: companies,
		metrics:   metrics,
		engine:    engine,
		alerts:    alerts,
		validator: validation.New(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// Inputs
// =============================================================================

// CreateInput is the payload of a new company
type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	TaxID       string  `json:"tax_id" validate:"required,len=10,numeric"`
	Sector      string  `json:"sector" validate:"required,max=100"`
	Revenue     float64 `json:"revenue" validate:"gte=0"`
	Assets      float64 `json:"assets" validate:"gte=0"`
	Liabilities float64 `json:"liabilities" validate:"gte=0"`
	CreditLimit float64 `json:"credit_limit" validate:"gte=0"` // 0 = use the recommended limit
}

// UpdateInput is a partial update; nil fields are left untouched
// Risk fields cannot be set directly.
type UpdateInput struct {
	Name        *string                  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	TaxID       *string                  `json:"tax_id,omitempty" validate:"omitempty,len=10,numeric"`
	Sector      *string                  `json:"sector,omitempty" validate:"omitempty,min=1,max=100"`
	Revenue     *float64                 `json:"revenue,omitempty" validate:"omitempty,gte=0"`
	Assets      *float64                 `json:"assets,omitempty" validate:"omitempty,gte=0"`
	Liabilities *float64                 `json:"liabilities,omitempty" validate:"omitempty,gte=0"`
	CreditLimit *float64                 `json:"credit_limit,omitempty" validate:"omitempty,gte=0"`
	Status      *contracts.CompanyStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive monitoring"`
}

// touchesFinancials reports whether the update changes scoring inputs
func (in UpdateInput) touchesFinancials() bool {
	return in.Revenue != nil || in.Assets != nil || in.Liabilities != nil
}

// RecalculateResult is returned by Recalculate
type RecalculateResult struct {
	Message         string                    `json:"message"`
	RiskScore       int                       `json:"risk_score"`
	PDScore         float64                   `json:"pd_score"`
	RiskLevel       contracts.RiskLevel       `json:"risk_level"`
	FinancialHealth contracts.FinancialHealth `json:"financial_health"`
	AlertsGenerated int                       `json:"alerts_generated"`
}

// =============================================================================
// Operations
// =============================================================================

// Create validates, scores and stores a new company, then evaluates alerts
func (s *Service) Create(ctx context.Context, in CreateInput, createdBy *int64) (*contracts.Company, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	// New companies have no financial statements yet
	c, err := s.insert(ctx, in, nil, createdBy)
	if err != nil {
		return nil, err
	}

	s.checkAlerts(ctx, c)
	return c, nil
}

// CreateWithMetrics stores a company together with its first snapshot and scores it from that snapshot
// Alerts are evaluated once, after both rows exist.
func (s *Service) CreateWithMetrics(
	ctx context.Context,
	in CreateInput,
	metric MetricInput,
	createdBy *int64,
) (*contracts.Company, *RecalculateResult, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, nil, err
	}
	if err := s.validator.Struct(metric); err != nil {
		return nil, nil, err
	}

	m := metric.ToMetric(0)
	c, err := s.insert(ctx, in, m, createdBy)
	if err != nil {
		return nil, nil, err
	}

	m.CompanyID = c.ID
	if err := s.metrics.Create(ctx, m); err != nil {
		return nil, nil, fmt.Errorf("store financial metric: %w", err)
	}

	generated := s.checkAlerts(ctx, c)
	return c, &RecalculateResult{
		Message:         "Risk calculation completed",
		RiskScore:       c.RiskScore,
		PDScore:         c.PDScore,
		RiskLevel:       c.RiskLevel,
		FinancialHealth: c.FinancialHealth,
		AlertsGenerated: generated,
	}, nil
}

// insert scores in against m (nil = balance sheet fallbacks) and stores the row
func (s *Service) insert(
	ctx context.Context,
	in CreateInput,
	m *contracts.FinancialMetric,
	createdBy *int64,
) (*contracts.Company, error) {
	existing, err := s.companies.GetByTaxID(ctx, in.TaxID)
	switch {
	case err == nil && existing != nil:
		return nil, contracts.ErrDuplicateTaxID
	case err != nil && !errors.Is(err, contracts.ErrNotFound):
		return nil, fmt.Errorf("check tax id: %w", err)
	}

	c := &contracts.Company{
		Name:        in.Name,
		TaxID:       in.TaxID,
		Sector:      in.Sector,
		Revenue:     in.Revenue,
		Assets:      in.Assets,
		Liabilities: in.Liabilities,
		CreditLimit: in.CreditLimit,
		Status:      contracts.StatusActive,
		CreatedBy:   createdBy,
	}

	assessment := s.engine.Assess(c, m)
	assessment.Apply(c)
	if c.CreditLimit == 0 {
		c.CreditLimit = assessment.RecommendedCreditLimit
	}
	if m != nil {
		now := s.now()
		c.LastAnalysis = &now
	}

	// The unique index still guards concurrent creates
	if err := s.companies.Create(ctx, c); err != nil {
		if errors.Is(err, contracts.ErrDuplicateTaxID) {
			return nil, err
		}
		return nil, fmt.Errorf("create company: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"company_id": c.ID,
		"risk_score": c.RiskScore,
		"pd_score":   c.PDScore,
	}).Info("company created")

	return c, nil
}

// Get returns a company with derived balance sheet figures and its latest metrics
func (s *Service) Get(ctx context.Context, id int64) (*contracts.CompanyWithMetrics, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	latest, err := s.latestMetrics(ctx, id)
	if err != nil {
		return nil, err
	}

	return &contracts.CompanyWithMetrics{
		Company:                *c,
		Equity:                 c.Equity(),
		DebtToEquityRatio:      c.DebtToEquity(),
		LatestFinancialMetrics: latest,
	}, nil
}

// List returns companies matching the filter
func (s *Service) List(ctx context.Context, filter contracts.CompanyFilter) ([]*contracts.Company, error) {
	list, err := s.companies.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return list, nil
}

// Update applies a partial update, rescoring when revenue/assets/liabilities change
// The credit limit follows the recommendation only while it is unset (0).
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*contracts.Company, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.TaxID != nil {
		c.TaxID = *in.TaxID
	}
	if in.Sector != nil {
		c.Sector = *in.Sector
	}
	if in.Revenue != nil {
		c.Revenue = *in.Revenue
	}
	if in.Assets != nil {
		c.Assets = *in.Assets
	}
	if in.Liabilities != nil {
		c.Liabilities = *in.Liabilities
	}
	if in.CreditLimit != nil {
		c.CreditLimit = *in.CreditLimit
	}
	if in.Status != nil {
		c.Status = *in.Status
	}

	if in.touchesFinancials() {
		latest, err := s.latestMetrics(ctx, id)
		if err != nil {
			return nil, err
		}
		assessment := s.engine.Assess(c, latest)
		assessment.Apply(c)
		if c.CreditLimit == 0 {
			c.CreditLimit = assessment.RecommendedCreditLimit
		}
	}

	if err := s.companies.Update(ctx, c); err != nil {
		if errors.Is(err, contracts.ErrDuplicateTaxID) {
			return nil, err
		}
		return nil, fmt.Errorf("update company: %w", err)
	}

	s.checkAlerts(ctx, c)
	return c, nil
}

// Delete is a soft delete: the company becomes inactive
func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return err
	}

	c.Status = contracts.StatusInactive
	if err := s.companies.Update(ctx, c); err != nil {
		return fmt.Errorf("deactivate company: %w", err)
	}

	s.log.WithField("company_id", id).Info("company deactivated")
	return nil
}

// Recalculate rescores a company from its latest financial metrics
func (s *Service) Recalculate(ctx context.Context, id int64) (*RecalculateResult, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	latest, err := s.latestMetrics(ctx, id)
	if err != nil {
		return nil, err
	}

	s.engine.Assess(c, latest).Apply(c)
	now := s.now()
	c.LastAnalysis = &now

	if err := s.companies.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("store recalculated risk: %w", err)
	}

	generated := s.checkAlerts(ctx, c)
	return &RecalculateResult{
		Message:         "Risk calculation completed",
		RiskScore:       c.RiskScore,
		PDScore:         c.PDScore,
		RiskLevel:       c.RiskLevel,
		FinancialHealth: c.FinancialHealth,
		AlertsGenerated: generated,
	}, nil
}

// =============================================================================
// Financial metrics
// =============================================================================

// MetricInput is the payload of a new financial statement snapshot
type MetricInput struct {
	Period string `json:"period" validate:"required,max=16"`

	Revenue         float64 `json:"revenue"`
	NetIncome       float64 `json:"net_income"`
	GrossProfit     float64 `json:"gross_profit"`
	OperatingIncome float64 `json:"operating_income"`
	EBITDA          float64 `json:"ebitda"`

	TotalAssets        float64 `json:"total_assets" validate:"gte=0"`
	CurrentAssets      float64 `json:"current_assets" validate:"gte=0"`
	TotalLiabilities   float64 `json:"total_liabilities" validate:"gte=0"`
	CurrentLiabilities float64 `json:"current_liabilities" validate:"gte=0"`
	Equity             float64 `json:"equity"`

	OperatingCashFlow float64 `json:"operating_cash_flow"`
	InvestingCashFlow float64 `json:"investing_cash_flow"`
	FinancingCashFlow float64 `json:"financing_cash_flow"`
	FreeCashFlow      float64 `json:"free_cash_flow"`

	DebtToEquity float64 `json:"debt_to_equity"`
	CurrentRatio float64 `json:"current_ratio" validate:"gte=0"`
	QuickRatio   float64 `json:"quick_ratio" validate:"gte=0"`
	ROA          float64 `json:"roa"`
	ROE          float64 `json:"roe"`
}

// ToMetric converts the input into a snapshot for companyID
func (in MetricInput) ToMetric(companyID int64) *contracts.FinancialMetric {
	return &contracts.FinancialMetric{
		CompanyID:          companyID,
		Period:             in.Period,
		Revenue:            in.Revenue,
		NetIncome:          in.NetIncome,
		GrossProfit:        in.GrossProfit,
		OperatingIncome:    in.OperatingIncome,
		EBITDA:             in.EBITDA,
		TotalAssets:        in.TotalAssets,
		CurrentAssets:      in.CurrentAssets,
		TotalLiabilities:   in.TotalLiabilities,
		CurrentLiabilities: in.CurrentLiabilities,
		Equity:             in.Equity,
		OperatingCashFlow:  in.OperatingCashFlow,
		InvestingCashFlow:  in.InvestingCashFlow,
		FinancingCashFlow:  in.FinancingCashFlow,
		FreeCashFlow:       in.FreeCashFlow,
		DebtToEquity:       in.DebtToEquity,
		CurrentRatio:       in.CurrentRatio,
		QuickRatio:         in.QuickRatio,
		ROA:                in.ROA,
		ROE:                in.ROE,
	}
}

// AddMetrics stores a snapshot; scores change only on the next Recalculate
func (s *Service) AddMetrics(ctx context.Context, companyID int64, in MetricInput) (*contracts.FinancialMetric, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	m := in.ToMetric(companyID)
	if err := s.metrics.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("store financial metric: %w", err)
	}
	return m, nil
}

// ListMetrics returns a company's snapshots newest first
func (s *Service) ListMetrics(ctx context.Context, companyID int64) ([]*contracts.FinancialMetric, error) {
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		return nil, err
	}
	return s.metrics.ListByCompany(ctx, companyID)
}

// =============================================================================
// Helpers
// =============================================================================

// latestMetrics returns nil without error when the company has no snapshot
func (s *Service) latestMetrics(ctx context.Context, companyID int64) (*contracts.FinancialMetric, error) {
	m, err := s.metrics.LatestByCompany(ctx, companyID)
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest metrics: %w", err)
	}
	return m, nil
}

// checkAlerts runs the alert rules; failures are logged, the write already succeeded
func (s *Service) checkAlerts(ctx context.Context, c *contracts.Company) int {
	if s.alerts == nil {
		return 0
	}
	created, err := s.alerts.CheckAndGenerate(ctx, c)
	if err != nil {
		s.log.WithError(err).WithField("company_id", c.ID).Error("alert evaluation failed")
	}
	return len(created)
}
