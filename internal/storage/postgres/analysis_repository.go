package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/finrisk/internal/contracts"
)

// AnalysisRepository implements contracts.AnalysisRepository
type AnalysisRepository struct {
	db *pgxpool.Pool
}

var _ contracts.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates a new AnalysisRepository
func NewAnalysisRepository(db *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `
	id, run_id::text, company_id, analyst_id, analysis_type,
	credit_score, pd_score, recommended_credit_limit,
	risk_factors, scenarios, model_version, confidence_level,
	notes, risk_mitigation_actions, status, created_at, updated_at`

func scanAnalysis(row pgx.Row) (*contracts.RiskAnalysis, error) {
	a := &contracts.RiskAnalysis{}
	var factorsJSON, scenariosJSON []byte
	err := row.Scan(
		&a.ID, &a.RunID, &a.CompanyID, &a.AnalystID, &a.AnalysisType,
		&a.CreditScore, &a.PDScore, &a.RecommendedCreditLimit,
		&factorsJSON, &scenariosJSON, &a.ModelVersion, &a.ConfidenceLevel,
		&a.Notes, &a.RiskMitigationActions, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(factorsJSON) > 0 {
		if err := json.Unmarshal(factorsJSON, &a.RiskFactors); err != nil {
			return nil, fmt.Errorf("unmarshal risk factors: %w", err)
		}
	}
	if len(scenariosJSON) > 0 {
		if err := json.Unmarshal(scenariosJSON, &a.Scenarios); err != nil {
			return nil, fmt.Errorf("unmarshal scenarios: %w", err)
		}
	}
	return a, nil
}

// Create inserts an analysis and fills ID and CreatedAt
func (r *AnalysisRepository) Create(ctx context.Context, a *contracts.RiskAnalysis) error {
	runID, err := uuid.Parse(a.RunID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}

	factorsJSON, err := json.Marshal(a.RiskFactors)
	if err != nil {
		return fmt.Errorf("marshal risk factors: %w", err)
	}

	var scenariosJSON []byte
	if a.Scenarios != nil {
		if scenariosJSON, err = json.Marshal(a.Scenarios); err != nil {
			return fmt.Errorf("marshal scenarios: %w", err)
		}
	}

	query := `
		INSERT INTO risk_analyses (
			run_id, company_id, analyst_id, analysis_type,
			credit_score, pd_score, recommended_credit_limit,
			risk_factors, scenarios, model_version, confidence_level,
			notes, risk_mitigation_actions, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`

	err = r.db.QueryRow(ctx, query,
		runID, a.CompanyID, a.AnalystID, a.AnalysisType,
		a.CreditScore, a.PDScore, a.RecommendedCreditLimit,
		factorsJSON, scenariosJSON, a.ModelVersion, a.ConfidenceLevel,
		a.Notes, a.RiskMitigationActions, a.Status,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID returns an analysis or contracts.ErrNotFound
func (r *AnalysisRepository) GetByID(ctx context.Context, id int64) (*contracts.RiskAnalysis, error) {
	query := `SELECT` + analysisColumns + ` FROM risk_analyses WHERE id = $1`

	a, err := scanAnalysis(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get analysis %d: %w", id, notFound(err))
	}
	return a, nil
}

// List returns analyses newest first
func (r *AnalysisRepository) List(ctx context.Context, f contracts.AnalysisFilter) ([]*contracts.RiskAnalysis, error) {
	var w where
	if f.CompanyID != 0 {
		w.add("company_id = ?", f.CompanyID)
	}
	if f.AnalysisType != "" {
		w.add("analysis_type = ?", f.AnalysisType)
	}

	query := `SELECT` + analysisColumns + ` FROM risk_analyses` + w.String() +
		` ORDER BY created_at DESC, id DESC` + w.page(f.Offset, f.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*contracts.RiskAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Update writes notes, mitigation actions, status and confidence; scores are immutable
func (r *AnalysisRepository) Update(ctx context.Context, a *contracts.RiskAnalysis) error {
	query := `
		UPDATE risk_analyses
		SET notes = $2, risk_mitigation_actions = $3, status = $4,
		    confidence_level = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.Notes, a.RiskMitigationActions, a.Status, a.ConfidenceLevel,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update analysis %d: %w", a.ID, notFound(err))
	}
	return nil
}
