package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/finrisk/internal/contracts"
)

// StatsRepository implements contracts.StatsRepository
type StatsRepository struct {
	db *pgxpool.Pool
}

var _ contracts.StatsRepository = (*StatsRepository)(nil)

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// DashboardStats runs the dashboard aggregates in one batch round trip
func (r *StatsRepository) DashboardStats(ctx context.Context) (*contracts.DashboardStats, error) {
	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE risk_level IN ('high', 'critical')),
			COALESCE(SUM(credit_limit), 0),
			COALESCE(AVG(risk_score), 0)::float8,
			COALESCE(AVG(pd_score), 0)::float8
		FROM companies
	`)
	batch.Queue(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_read),
			COUNT(*) FILTER (WHERE severity = 'critical')
		FROM risk_alerts
	`)
	batch.Queue(`SELECT COUNT(*) FROM risk_analyses`)
	batch.Queue(`SELECT risk_level, COUNT(*) FROM companies GROUP BY risk_level`)

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	stats := &contracts.DashboardStats{
		RiskDistribution: make(map[contracts.RiskLevel]int, len(contracts.RiskLevels)),
		GeneratedAt:      time.Now().UTC(),
	}
	for _, level := range contracts.RiskLevels {
		stats.RiskDistribution[level] = 0
	}

	var avgScore, avgPD float64
	if err := results.QueryRow().Scan(
		&stats.TotalCompanies, &stats.ActiveCompanies, &stats.HighRiskCompanies,
		&stats.TotalCreditExposure, &avgScore, &avgPD,
	); err != nil {
		return nil, fmt.Errorf("query company stats: %w", err)
	}
	stats.AverageRiskScore = math.Round(avgScore*10) / 10
	stats.AveragePDScore = math.Round(avgPD*100) / 100

	if err := results.QueryRow().Scan(&stats.TotalAlerts, &stats.UnreadAlerts, &stats.CriticalAlerts); err != nil {
		return nil, fmt.Errorf("query alert stats: %w", err)
	}

	if err := results.QueryRow().Scan(&stats.TotalAnalyses); err != nil {
		return nil, fmt.Errorf("query analysis count: %w", err)
	}

	rows, err := results.Query()
	if err != nil {
		return nil, fmt.Errorf("query risk distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			level contracts.RiskLevel
			count int
		)
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("scan risk distribution: %w", err)
		}
		stats.RiskDistribution[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("risk distribution rows: %w", err)
	}

	return stats, nil
}
