package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/finrisk/internal/contracts"
)

// MetricRepository implements contracts.FinancialMetricRepository
type MetricRepository struct {
	db *pgxpool.Pool
}

var _ contracts.FinancialMetricRepository = (*MetricRepository)(nil)

// NewMetricRepository creates a new MetricRepository
func NewMetricRepository(db *pgxpool.Pool) *MetricRepository {
	return &MetricRepository{db: db}
}

const metricColumns = `
	id, company_id, period,
	revenue, net_income, gross_profit, operating_income, ebitda,
	total_assets, current_assets, total_liabilities, current_liabilities, equity,
	operating_cash_flow, investing_cash_flow, financing_cash_flow, free_cash_flow,
	debt_to_equity, current_ratio, quick_ratio, roa, roe,
	created_at`

func scanMetric(row pgx.Row) (*contracts.FinancialMetric, error) {
	m := &contracts.FinancialMetric{}
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.Period,
		&m.Revenue, &m.NetIncome, &m.GrossProfit, &m.OperatingIncome, &m.EBITDA,
		&m.TotalAssets, &m.CurrentAssets, &m.TotalLiabilities, &m.CurrentLiabilities, &m.Equity,
		&m.OperatingCashFlow, &m.InvestingCashFlow, &m.FinancingCashFlow, &m.FreeCashFlow,
		&m.DebtToEquity, &m.CurrentRatio, &m.QuickRatio, &m.ROA, &m.ROE,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts a snapshot and fills ID and CreatedAt
func (r *MetricRepository) Create(ctx context.Context, m *contracts.FinancialMetric) error {
	query := `
		INSERT INTO financial_metrics (
			company_id, period,
			revenue, net_income, gross_profit, operating_income, ebitda,
			total_assets, current_assets, total_liabilities, current_liabilities, equity,
			operating_cash_flow, investing_cash_flow, financing_cash_flow, free_cash_flow,
			debt_to_equity, current_ratio, quick_ratio, roa, roe
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		m.CompanyID, m.Period,
		m.Revenue, m.NetIncome, m.GrossProfit, m.OperatingIncome, m.EBITDA,
		m.TotalAssets, m.CurrentAssets, m.TotalLiabilities, m.CurrentLiabilities, m.Equity,
		m.OperatingCashFlow, m.InvestingCashFlow, m.FinancingCashFlow, m.FreeCashFlow,
		m.DebtToEquity, m.CurrentRatio, m.QuickRatio, m.ROA, m.ROE,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert financial metric: %w", err)
	}
	return nil
}

// LatestByCompany returns the newest snapshot or contracts.ErrNotFound
func (r *MetricRepository) LatestByCompany(ctx context.Context, companyID int64) (*contracts.FinancialMetric, error) {
	query := `SELECT` + metricColumns + `
		FROM financial_metrics
		WHERE company_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	m, err := scanMetric(r.db.QueryRow(ctx, query, companyID))
	if err != nil {
		return nil, fmt.Errorf("latest financial metric: %w", notFound(err))
	}
	return m, nil
}

// ListByCompany returns snapshots newest first
func (r *MetricRepository) ListByCompany(ctx context.Context, companyID int64) ([]*contracts.FinancialMetric, error) {
	query := `SELECT` + metricColumns + `
		FROM financial_metrics
		WHERE company_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("query financial metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*contracts.FinancialMetric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan financial metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}
