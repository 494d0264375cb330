package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/config"
	"github.com/wonny/finrisk/pkg/database"
)

func TestWhere(t *testing.T) {
	var w where
	assert.Empty(t, w.String())

	w.add("(name ILIKE ? OR tax_id ILIKE ?)", "%acme%")
	w.add("status = ?", "active")
	assert.Equal(t, " WHERE (name ILIKE $1 OR tax_id ILIKE $1) AND status = $2", w.String())

	assert.Equal(t, " LIMIT $3 OFFSET $4", w.page(-5, 0))
	assert.Equal(t, []interface{}{"%acme%", "active", defaultListLimit, 0}, w.args)
}

// testStore connects to DATABASE_URL and applies migrations
func testStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.MigrateUp(context.Background())
	require.NoError(t, err)

	return NewStore(db.Pool)
}

func uniqueTaxID() string {
	return fmt.Sprintf("%010d", time.Now().UnixNano()%10_000_000_000)
}

func TestCompanyRepository_Integration(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c := &contracts.Company{
		Name:            "Integration Test A.Ş.",
		TaxID:           uniqueTaxID(),
		Sector:          "Teknoloji",
		Revenue:         10_000_000,
		Assets:          8_000_000,
		Liabilities:     3_000_000,
		RiskScore:       1000,
		RiskLevel:       contracts.RiskLevelLow,
		PDScore:         1.87,
		FinancialHealth: contracts.HealthExcellent,
		Status:          contracts.StatusActive,
	}
	require.NoError(t, store.Companies.Create(ctx, c))
	assert.NotZero(t, c.ID)

	dup := *c
	assert.ErrorIs(t, store.Companies.Create(ctx, &dup), contracts.ErrDuplicateTaxID)

	got, err := store.Companies.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.TaxID, got.TaxID)
	assert.Equal(t, contracts.RiskLevelLow, got.RiskLevel)

	got.Status = contracts.StatusMonitoring
	require.NoError(t, store.Companies.Update(ctx, got))
	assert.NotNil(t, got.UpdatedAt)

	ids, err := store.Companies.ListIDsByStatus(ctx, contracts.StatusMonitoring)
	require.NoError(t, err)
	assert.Contains(t, ids, c.ID)

	list, err := store.Companies.List(ctx, contracts.CompanyFilter{Search: c.TaxID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = store.Companies.GetByID(ctx, -1)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	// Metrics
	_, err = store.Metrics.LatestByCompany(ctx, c.ID)
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	m := &contracts.FinancialMetric{CompanyID: c.ID, Period: "2024-12", Revenue: 10_000_000, CurrentRatio: 1.8}
	require.NoError(t, store.Metrics.Create(ctx, m))
	latest, err := store.Metrics.LatestByCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, latest.ID)

	// Alerts
	alert := &contracts.RiskAlert{
		CompanyID: c.ID,
		AlertType: contracts.AlertPDIncrease,
		Severity:  contracts.SeverityHigh,
		Title:     "t",
		Message:   "m",
	}
	require.NoError(t, store.Alerts.Create(ctx, alert))

	exists, err := store.Alerts.ExistsSince(ctx, c.ID, contracts.AlertPDIncrease, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err := store.Alerts.MarkRead(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Alerts.Resolve(ctx, -1, nil, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	alerts, err := store.Alerts.List(ctx, contracts.AlertFilter{CompanyID: c.ID})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, c.Name, alerts[0].CompanyName)

	// Analyses
	analysis := &contracts.RiskAnalysis{
		RunID:        uuid.NewString(),
		CompanyID:    c.ID,
		AnalysisType: contracts.AnalysisStressTest,
		RiskFactors:  contracts.RiskFactors{"sector_risk": {Score: 1.25, Weight: 0.15, Status: contracts.FactorGood}},
		Scenarios:    contracts.StressScenarios{"base_case": 1.87},
		Status:       contracts.AnalysisCompleted,
	}
	require.NoError(t, store.Analyses.Create(ctx, analysis))

	stored, err := store.Analyses.GetByID(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.RunID, stored.RunID)
	assert.Equal(t, 1.87, stored.Scenarios["base_case"])
	assert.Nil(t, stored.UpdatedAt)

	stored.Notes = "Komite onayı"
	stored.RiskMitigationActions = "Kefalet"
	stored.Status = contracts.AnalysisInProgress
	stored.ConfidenceLevel = 0.6
	require.NoError(t, store.Analyses.Update(ctx, stored))
	require.NotNil(t, stored.UpdatedAt)

	amended, err := store.Analyses.GetByID(ctx, analysis.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kefalet", amended.RiskMitigationActions)
	assert.Equal(t, contracts.AnalysisInProgress, amended.Status)

	missing := &contracts.RiskAnalysis{ID: -1}
	assert.ErrorIs(t, store.Analyses.Update(ctx, missing), contracts.ErrNotFound)

	// Dashboard
	stats, err := store.Stats.DashboardStats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalCompanies, 1)
	assert.Len(t, stats.RiskDistribution, 4)
}

func TestSchema_RejectsUnknownEnumValues(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	c := &contracts.Company{
		Name:            "Constraint Test A.Ş.",
		TaxID:           uniqueTaxID(),
		RiskLevel:       contracts.RiskLevel("severe"),
		FinancialHealth: contracts.HealthGood,
		Status:          contracts.StatusActive,
	}
	assert.Error(t, store.Companies.Create(ctx, c))

	c.RiskLevel = contracts.RiskLevelLow
	c.Status = contracts.CompanyStatus("archived")
	assert.Error(t, store.Companies.Create(ctx, c))

	c.Status = contracts.StatusActive
	require.NoError(t, store.Companies.Create(ctx, c))

	alert := &contracts.RiskAlert{
		CompanyID: c.ID,
		AlertType: contracts.AlertType("weather"),
		Severity:  contracts.SeverityLow,
		Title:     "t",
		Message:   "m",
	}
	assert.Error(t, store.Alerts.Create(ctx, alert))

	alert.AlertType = contracts.AlertSectorRisk
	alert.Severity = contracts.Severity("urgent")
	assert.Error(t, store.Alerts.Create(ctx, alert))
}
