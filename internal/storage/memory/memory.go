// Package memory provides in-process implementations of the repository
// contracts. It backs handler and service tests and the offline CLI commands.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wonny/finrisk/internal/contracts"
)

// DB holds every table behind one lock
type DB struct {
	mu        sync.RWMutex
	seq       map[string]int64 // per table, like BIGSERIAL
	companies map[int64]contracts.Company
	metrics   map[int64]contracts.FinancialMetric
	alerts    map[int64]contracts.RiskAlert
	analyses  map[int64]contracts.RiskAnalysis
	now       func() time.Time
}

// New returns an empty database
func New() *DB {
	return &DB{
		seq:       make(map[string]int64),
		companies: make(map[int64]contracts.Company),
		metrics:   make(map[int64]contracts.FinancialMetric),
		alerts:    make(map[int64]contracts.RiskAlert),
		analyses:  make(map[int64]contracts.RiskAnalysis),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source for created_at columns
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.now = now
}

func (db *DB) nextID(table string) int64 {
	db.seq[table]++
	return db.seq[table]
}

// Companies returns the company repository
func (db *DB) Companies() *CompanyRepository { return &CompanyRepository{db: db} }

// Metrics returns the financial metric repository
func (db *DB) Metrics() *MetricRepository { return &MetricRepository{db: db} }

// Alerts returns the alert repository
func (db *DB) Alerts() *AlertRepository { return &AlertRepository{db: db} }

// Analyses returns the analysis repository
func (db *DB) Analyses() *AnalysisRepository { return &AnalysisRepository{db: db} }

// Stats returns the dashboard aggregate repository
func (db *DB) Stats() *StatsRepository { return &StatsRepository{db: db} }

func page(n, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}

// =============================================================================
// Companies
// =============================================================================

// CompanyRepository implements contracts.CompanyRepository
type CompanyRepository struct{ db *DB }

var _ contracts.CompanyRepository = (*CompanyRepository)(nil)

func (r *CompanyRepository) Create(_ context.Context, c *contracts.Company) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.companies {
		if existing.TaxID == c.TaxID {
			return contracts.ErrDuplicateTaxID
		}
	}
	c.ID = r.db.nextID("companies")
	c.CreatedAt = r.db.now()
	r.db.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepository) GetByID(_ context.Context, id int64) (*contracts.Company, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.companies[id]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &c, nil
}

func (r *CompanyRepository) GetByTaxID(_ context.Context, taxID string) (*contracts.Company, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, c := range r.db.companies {
		if c.TaxID == taxID {
			c := c
			return &c, nil
		}
	}
	return nil, contracts.ErrNotFound
}

func (r *CompanyRepository) List(_ context.Context, f contracts.CompanyFilter) ([]*contracts.Company, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []*contracts.Company
	for _, c := range r.db.companies {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.TaxID), search) &&
			!strings.Contains(strings.ToLower(c.Sector), search) {
			continue
		}
		if f.RiskLevel != "" && c.RiskLevel != f.RiskLevel {
			continue
		}
		if f.Sector != "" && c.Sector != f.Sector {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	start, end := page(len(out), f.Offset, f.Limit)
	return out[start:end], nil
}

func (r *CompanyRepository) Update(_ context.Context, c *contracts.Company) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.companies[c.ID]; !ok {
		return contracts.ErrNotFound
	}
	now := r.db.now()
	c.UpdatedAt = &now
	r.db.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepository) ListIDsByStatus(_ context.Context, statuses ...contracts.CompanyStatus) ([]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var ids []int64
	for id, c := range r.db.companies {
		for _, s := range statuses {
			if c.Status == s {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// =============================================================================
// Financial metrics
// =============================================================================

// MetricRepository implements contracts.FinancialMetricRepository
type MetricRepository struct{ db *DB }

var _ contracts.FinancialMetricRepository = (*MetricRepository)(nil)

func (r *MetricRepository) Create(_ context.Context, m *contracts.FinancialMetric) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.companies[m.CompanyID]; !ok {
		return contracts.ErrNotFound
	}
	m.ID = r.db.nextID("financial_metrics")
	m.CreatedAt = r.db.now()
	r.db.metrics[m.ID] = *m
	return nil
}

func (r *MetricRepository) LatestByCompany(ctx context.Context, companyID int64) (*contracts.FinancialMetric, error) {
	list, _ := r.ListByCompany(ctx, companyID)
	if len(list) == 0 {
		return nil, contracts.ErrNotFound
	}
	return list[0], nil
}

// ListByCompany returns snapshots newest first
func (r *MetricRepository) ListByCompany(_ context.Context, companyID int64) ([]*contracts.FinancialMetric, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*contracts.FinancialMetric
	for _, m := range r.db.metrics {
		if m.CompanyID == companyID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// =============================================================================
// Alerts
// =============================================================================

// AlertRepository implements contracts.AlertRepository
type AlertRepository struct{ db *DB }

var _ contracts.AlertRepository = (*AlertRepository)(nil)

func (r *AlertRepository) ExistsSince(_ context.Context, companyID int64, t contracts.AlertType, since time.Time) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, a := range r.db.alerts {
		if a.CompanyID == companyID && a.AlertType == t && a.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *AlertRepository) Create(_ context.Context, a *contracts.RiskAlert) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a.ID = r.db.nextID("risk_alerts")
	a.CreatedAt = r.db.now()
	r.db.alerts[a.ID] = *a
	return nil
}

func (r *AlertRepository) MarkRead(_ context.Context, alertID int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.alerts[alertID]
	if !ok {
		return false, nil
	}
	a.IsRead = true
	r.db.alerts[alertID] = a
	return true, nil
}

func (r *AlertRepository) Resolve(_ context.Context, alertID int64, userID *int64, at time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a, ok := r.db.alerts[alertID]
	if !ok {
		return false, nil
	}
	a.IsResolved = true
	a.ResolvedAt = &at
	a.ResolvedBy = userID
	r.db.alerts[alertID] = a
	return true, nil
}

// List returns alerts newest first
func (r *AlertRepository) List(_ context.Context, f contracts.AlertFilter) ([]*contracts.AlertWithCompany, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*contracts.AlertWithCompany
	for _, a := range r.db.alerts {
		if f.UnreadOnly && a.IsRead {
			continue
		}
		if f.Unresolved && a.IsResolved {
			continue
		}
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		if f.AlertType != "" && a.AlertType != f.AlertType {
			continue
		}
		if f.CompanyID != 0 && a.CompanyID != f.CompanyID {
			continue
		}
		out = append(out, &contracts.AlertWithCompany{
			RiskAlert:   a,
			CompanyName: r.db.companies[a.CompanyID].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	start, end := page(len(out), f.Offset, f.Limit)
	return out[start:end], nil
}

func (r *AlertRepository) Stats(_ context.Context) (*contracts.AlertStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	stats := &contracts.AlertStats{TotalAlerts: len(r.db.alerts)}
	for _, a := range r.db.alerts {
		if !a.IsRead {
			stats.UnreadAlerts++
		}
		if a.Severity == contracts.SeverityCritical {
			stats.CriticalAlerts++
		}
		if !a.IsResolved {
			stats.UnresolvedAlerts++
		}
	}
	return stats, nil
}

// =============================================================================
// Analyses
// =============================================================================

// AnalysisRepository implements contracts.AnalysisRepository
type AnalysisRepository struct{ db *DB }

var _ contracts.AnalysisRepository = (*AnalysisRepository)(nil)

func (r *AnalysisRepository) Create(_ context.Context, a *contracts.RiskAnalysis) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.companies[a.CompanyID]; !ok {
		return contracts.ErrNotFound
	}
	a.ID = r.db.nextID("risk_analyses")
	a.CreatedAt = r.db.now()
	r.db.analyses[a.ID] = *a
	return nil
}

func (r *AnalysisRepository) GetByID(_ context.Context, id int64) (*contracts.RiskAnalysis, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	a, ok := r.db.analyses[id]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &a, nil
}

func (r *AnalysisRepository) Update(_ context.Context, a *contracts.RiskAnalysis) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.analyses[a.ID]
	if !ok {
		return contracts.ErrNotFound
	}
	now := r.db.now()
	stored.Notes = a.Notes
	stored.RiskMitigationActions = a.RiskMitigationActions
	stored.Status = a.Status
	stored.ConfidenceLevel = a.ConfidenceLevel
	stored.UpdatedAt = &now
	r.db.analyses[a.ID] = stored
	a.UpdatedAt = &now
	return nil
}

func (r *AnalysisRepository) List(_ context.Context, f contracts.AnalysisFilter) ([]*contracts.RiskAnalysis, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []*contracts.RiskAnalysis
	for _, a := range r.db.analyses {
		if f.CompanyID != 0 && a.CompanyID != f.CompanyID {
			continue
		}
		if f.AnalysisType != "" && a.AnalysisType != f.AnalysisType {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	start, end := page(len(out), f.Offset, f.Limit)
	return out[start:end], nil
}

// =============================================================================
// Dashboard
// =============================================================================

// StatsRepository implements contracts.StatsRepository
type StatsRepository struct{ db *DB }

var _ contracts.StatsRepository = (*StatsRepository)(nil)

func (r *StatsRepository) DashboardStats(_ context.Context) (*contracts.DashboardStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	stats := &contracts.DashboardStats{
		TotalCompanies:   len(r.db.companies),
		TotalAlerts:      len(r.db.alerts),
		TotalAnalyses:    len(r.db.analyses),
		RiskDistribution: make(map[contracts.RiskLevel]int, len(contracts.RiskLevels)),
		GeneratedAt:      r.db.now(),
	}
	for _, level := range contracts.RiskLevels {
		stats.RiskDistribution[level] = 0
	}

	var scoreSum, pdSum float64
	for _, c := range r.db.companies {
		if c.Status == contracts.StatusActive {
			stats.ActiveCompanies++
		}
		if c.RiskLevel == contracts.RiskLevelHigh || c.RiskLevel == contracts.RiskLevelCritical {
			stats.HighRiskCompanies++
		}
		if c.RiskLevel != "" {
			stats.RiskDistribution[c.RiskLevel]++
		}
		stats.TotalCreditExposure += c.CreditLimit
		scoreSum += float64(c.RiskScore)
		pdSum += c.PDScore
	}
	if n := len(r.db.companies); n > 0 {
		stats.AverageRiskScore = math.Round(scoreSum/float64(n)*10) / 10
		stats.AveragePDScore = math.Round(pdSum/float64(n)*100) / 100
	}

	for _, a := range r.db.alerts {
		if !a.IsRead {
			stats.UnreadAlerts++
		}
		if a.Severity == contracts.SeverityCritical {
			stats.CriticalAlerts++
		}
	}
	return stats, nil
}
