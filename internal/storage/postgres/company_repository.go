package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/finrisk/internal/contracts"
)

// CompanyRepository implements contracts.CompanyRepository
type CompanyRepository struct {
	db *pgxpool.Pool
}

var _ contracts.CompanyRepository = (*CompanyRepository)(nil)

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `
	id, name, tax_id, sector,
	revenue, assets, liabilities, credit_limit,
	risk_score, risk_level, pd_score, financial_health,
	status, last_analysis, created_at, updated_at, created_by`

func scanCompany(row pgx.Row) (*contracts.Company, error) {
	c := &contracts.Company{}
	err := row.Scan(
		&c.ID, &c.Name, &c.TaxID, &c.Sector,
		&c.Revenue, &c.Assets, &c.Liabilities, &c.CreditLimit,
		&c.RiskScore, &c.RiskLevel, &c.PDScore, &c.FinancialHealth,
		&c.Status, &c.LastAnalysis, &c.CreatedAt, &c.UpdatedAt, &c.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a company and fills ID and CreatedAt
func (r *CompanyRepository) Create(ctx context.Context, c *contracts.Company) error {
	query := `
		INSERT INTO companies (
			name, tax_id, sector,
			revenue, assets, liabilities, credit_limit,
			risk_score, risk_level, pd_score, financial_health,
			status, last_analysis, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		c.Name, c.TaxID, c.Sector,
		c.Revenue, c.Assets, c.Liabilities, c.CreditLimit,
		c.RiskScore, c.RiskLevel, c.PDScore, c.FinancialHealth,
		c.Status, c.LastAnalysis, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return contracts.ErrDuplicateTaxID
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID returns a company or contracts.ErrNotFound
func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*contracts.Company, error) {
	query := `SELECT` + companyColumns + ` FROM companies WHERE id = $1`

	c, err := scanCompany(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get company %d: %w", id, notFound(err))
	}
	return c, nil
}

// GetByTaxID returns a company or contracts.ErrNotFound
func (r *CompanyRepository) GetByTaxID(ctx context.Context, taxID string) (*contracts.Company, error) {
	query := `SELECT` + companyColumns + ` FROM companies WHERE tax_id = $1`

	c, err := scanCompany(r.db.QueryRow(ctx, query, taxID))
	if err != nil {
		return nil, fmt.Errorf("get company by tax id: %w", notFound(err))
	}
	return c, nil
}

// List returns companies matching the filter, ordered by id
func (r *CompanyRepository) List(ctx context.Context, f contracts.CompanyFilter) ([]*contracts.Company, error) {
	var w where
	if f.Search != "" {
		w.add("(name ILIKE ? OR tax_id ILIKE ? OR sector ILIKE ?)", "%"+f.Search+"%")
	}
	if f.RiskLevel != "" {
		w.add("risk_level = ?", f.RiskLevel)
	}
	if f.Sector != "" {
		w.add("sector = ?", f.Sector)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}

	query := `SELECT` + companyColumns + ` FROM companies` + w.String() + ` ORDER BY id` + w.page(f.Offset, f.Limit)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []*contracts.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Update writes every mutable column and refreshes UpdatedAt
func (r *CompanyRepository) Update(ctx context.Context, c *contracts.Company) error {
	query := `
		UPDATE companies SET
			name = $2, tax_id = $3, sector = $4,
			revenue = $5, assets = $6, liabilities = $7, credit_limit = $8,
			risk_score = $9, risk_level = $10, pd_score = $11, financial_health = $12,
			status = $13, last_analysis = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.ID, c.Name, c.TaxID, c.Sector,
		c.Revenue, c.Assets, c.Liabilities, c.CreditLimit,
		c.RiskScore, c.RiskLevel, c.PDScore, c.FinancialHealth,
		c.Status, c.LastAnalysis,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return contracts.ErrDuplicateTaxID
		}
		return fmt.Errorf("update company %d: %w", c.ID, notFound(err))
	}
	return nil
}

// ListIDsByStatus returns ids of companies in any of the given statuses
func (r *CompanyRepository) ListIDsByStatus(ctx context.Context, statuses ...contracts.CompanyStatus) ([]int64, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	rows, err := r.db.Query(ctx, `SELECT id FROM companies WHERE status = ANY($1) ORDER BY id`, values)
	if err != nil {
		return nil, fmt.Errorf("query company ids: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect company ids: %w", err)
	}
	return ids, nil
}
