// Package analysis runs credit, PD and stress-test analyses over stored companies.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/scoring"
	"github.com/wonny/finrisk/internal/validation"
	"github.com/wonny/finrisk/pkg/logger"
)

// ErrInvalidAnalysisType is returned for an unknown analysis type
var ErrInvalidAnalysisType = errors.New("invalid analysis type")

// DefaultConfidence is recorded on completed analyses
const DefaultConfidence = 0.85

// Service runs analyses; it never changes company risk fields
type Service struct {
	companies contracts.CompanyRepository
	metrics   contracts.FinancialMetricRepository
	analyses  contracts.AnalysisRepository
	engine    *scoring.Engine
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates an analysis service
func NewService(
	companies contracts.CompanyRepository,
	metrics contracts.FinancialMetricRepository,
	analyses contracts.AnalysisRepository,
	engine *scoring.Engine,
	log *logger.Logger,
) *Service {
	return &Service{
		companies: companies,
		metrics:   metrics,
		analyses:  analyses,
		engine:    engine,
		validator: validation.New(),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// QuickResult is an unpersisted analysis; fields depend on the type
type QuickResult struct {
	AnalysisType           contracts.AnalysisType    `json:"analysis_type"`
	CreditScore            *int                      `json:"credit_score,omitempty"`
	RecommendedCreditLimit *float64                  `json:"recommended_credit_limit,omitempty"`
	PDScore                *float64                  `json:"pd_score,omitempty"`
	RiskLevel              contracts.RiskLevel       `json:"risk_level,omitempty"`
	RiskFactors            contracts.RiskFactors     `json:"risk_factors,omitempty"`
	Scenarios              contracts.StressScenarios `json:"scenarios,omitempty"`
	Timestamp              time.Time                 `json:"timestamp"`
}

// Quick computes an analysis of type t for a company from its latest metrics
func (s *Service) Quick(ctx context.Context, companyID int64, t contracts.AnalysisType) (*QuickResult, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnalysisType, t)
	}

	c, m, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}

	res := &QuickResult{AnalysisType: t, Timestamp: s.now()}
	switch t {
	case contracts.AnalysisCredit:
		score := s.engine.CreditScore(c, m)
		limit := s.engine.RecommendedCreditLimit(c, m)
		res.CreditScore = &score
		res.RecommendedCreditLimit = &limit
		res.RiskFactors = s.engine.RiskFactors(c, m)
	case contracts.AnalysisPD:
		pd := s.engine.PDScore(c, m)
		res.PDScore = &pd
		res.RiskLevel = scoring.PDRiskLevel(pd)
		res.RiskFactors = s.engine.RiskFactors(c, m)
	case contracts.AnalysisStressTest:
		res.Scenarios = s.engine.StressTest(c, m)
	}
	return res, nil
}

// RunInput requests a persisted analysis
type RunInput struct {
	CompanyID    int64                  `json:"company_id" validate:"required,gt=0"`
	AnalysisType contracts.AnalysisType `json:"analysis_type" validate:"required,oneof=credit pd stress_test"`
	Notes        string                 `json:"notes,omitempty" validate:"max=2000"`
}

// Run computes every figure for the company and stores a completed analysis
func (s *Service) Run(ctx context.Context, in RunInput, analystID *int64) (*contracts.RiskAnalysis, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	c, m, err := s.load(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}

	a := &contracts.RiskAnalysis{
		RunID:                  uuid.NewString(),
		CompanyID:              c.ID,
		AnalystID:              analystID,
		AnalysisType:           in.AnalysisType,
		CreditScore:            s.engine.CreditScore(c, m),
		PDScore:                s.engine.PDScore(c, m),
		RecommendedCreditLimit: s.engine.RecommendedCreditLimit(c, m),
		RiskFactors:            s.engine.RiskFactors(c, m),
		ModelVersion:           s.engine.ModelVersion(),
		ConfidenceLevel:        DefaultConfidence,
		Notes:                  in.Notes,
		Status:                 contracts.AnalysisCompleted,
	}
	if in.AnalysisType == contracts.AnalysisStressTest {
		a.Scenarios = s.engine.StressTest(c, m)
	}

	if err := s.analyses.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"analysis_id": a.ID,
		"run_id":      a.RunID,
		"company_id":  a.CompanyID,
		"type":        a.AnalysisType,
	}).Info("risk analysis completed")

	return a, nil
}

// UpdateInput amends a stored analysis; nil fields are left untouched
// Computed figures (scores, factors, scenarios) cannot be changed.
type UpdateInput struct {
	Notes                 *string                   `json:"notes,omitempty" validate:"omitempty,max=2000"`
	RiskMitigationActions *string                   `json:"risk_mitigation_actions,omitempty" validate:"omitempty,max=4000"`
	Status                *contracts.AnalysisStatus `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed failed"`
	ConfidenceLevel       *float64                  `json:"confidence_level,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Update applies an analyst's amendments to a stored analysis
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, analystID *int64) (*contracts.RiskAnalysis, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	a, err := s.analyses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Notes != nil {
		a.Notes = *in.Notes
	}
	if in.RiskMitigationActions != nil {
		a.RiskMitigationActions = *in.RiskMitigationActions
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	if in.ConfidenceLevel != nil {
		a.ConfidenceLevel = *in.ConfidenceLevel
	}

	if err := s.analyses.Update(ctx, a); err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update analysis: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"analysis_id": a.ID,
		"status":      a.Status,
		"analyst_id":  analystID,
	}).Info("risk analysis updated")

	return a, nil
}

// Get returns a stored analysis
func (s *Service) Get(ctx context.Context, id int64) (*contracts.RiskAnalysis, error) {
	return s.analyses.GetByID(ctx, id)
}

// List returns stored analyses, newest first
func (s *Service) List(ctx context.Context, filter contracts.AnalysisFilter) ([]*contracts.RiskAnalysis, error) {
	if filter.AnalysisType != "" && !filter.AnalysisType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAnalysisType, filter.AnalysisType)
	}
	list, err := s.analyses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return list, nil
}

// load fetches the company and its latest metrics (nil when none)
func (s *Service) load(ctx context.Context, companyID int64) (*contracts.Company, *contracts.FinancialMetric, error) {
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}

	m, err := s.metrics.LatestByCompany(ctx, companyID)
	if errors.Is(err, contracts.ErrNotFound) {
		return c, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load latest metrics: %w", err)
	}
	return c, m, nil
}
