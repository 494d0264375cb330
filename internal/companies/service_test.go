package companies

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrisk/internal/alerts"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/scoring"
	"github.com/wonny/finrisk/internal/storage/memory"
	"github.com/wonny/finrisk/pkg/logger"
)

type fixture struct {
	svc    *Service
	db     *memory.DB
	alerts *memory.AlertRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	alertRepo := db.Alerts()
	alertSvc := alerts.NewService(alertRepo, logger.Nop())
	svc := NewService(db.Companies(), db.Metrics(), scoring.NewEngine(), alertSvc, logger.Nop())
	return &fixture{svc: svc, db: db, alerts: alertRepo}
}

func techInput() CreateInput {
	return CreateInput{
		Name:        "Anadolu Yazılım A.Ş.",
		TaxID:       "1234567890",
		Sector:      "Teknoloji",
		Revenue:     10_000_000,
		Assets:      8_000_000,
		Liabilities: 3_000_000,
	}
}

func ptr[T any](v T) *T { return &v }

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := int64(3)
	c, err := f.svc.Create(ctx, techInput(), &user)
	require.NoError(t, err)

	assert.NotZero(t, c.ID)
	assert.Equal(t, 1000, c.RiskScore)
	assert.Equal(t, contracts.RiskLevelLow, c.RiskLevel)
	assert.InDelta(t, 1.87, c.PDScore, 0.01)
	assert.Equal(t, contracts.HealthExcellent, c.FinancialHealth)
	assert.InDelta(t, 1_500_000, c.CreditLimit, 0.01, "unset limit takes the recommendation")
	assert.Equal(t, contracts.StatusActive, c.Status)
	assert.Equal(t, &user, c.CreatedBy)

	// liabilities 3M > 80% of 1.5M
	stored, err := f.alerts.List(ctx, contracts.AlertFilter{CompanyID: c.ID})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, contracts.AlertCreditLimit, stored[0].AlertType)
}

func TestService_CreateKeepsExplicitLimit(t *testing.T) {
	f := newFixture(t)

	in := techInput()
	in.CreditLimit = 10_000_000
	c, err := f.svc.Create(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, 10_000_000.0, c.CreditLimit)
}

func TestService_CreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	in := techInput()
	in.TaxID = "12345"
	_, err := f.svc.Create(context.Background(), in, nil)
	assert.ErrorIs(t, err, contracts.ErrValidation)

	in = techInput()
	in.Revenue = -1
	_, err = f.svc.Create(context.Background(), in, nil)
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestService_CreateDuplicateTaxID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, techInput(), nil)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, techInput(), nil)
	assert.ErrorIs(t, err, contracts.ErrDuplicateTaxID)
}

// countingCompanies records inserts and can fail tax id lookups
type countingCompanies struct {
	contracts.CompanyRepository
	lookupErr error
	creates   int
}

func (c *countingCompanies) GetByTaxID(ctx context.Context, taxID string) (*contracts.Company, error) {
	if c.lookupErr != nil {
		return nil, c.lookupErr
	}
	return c.CompanyRepository.GetByTaxID(ctx, taxID)
}

func (c *countingCompanies) Create(ctx context.Context, company *contracts.Company) error {
	c.creates++
	return c.CompanyRepository.Create(ctx, company)
}

func TestService_CreateChecksTaxIDBeforeInsert(t *testing.T) {
	db := memory.New()
	repo := &countingCompanies{CompanyRepository: db.Companies()}
	svc := NewService(repo, db.Metrics(), scoring.NewEngine(), alerts.NewService(db.Alerts(), logger.Nop()), logger.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, techInput(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, repo.creates)

	_, err = svc.Create(ctx, techInput(), nil)
	assert.ErrorIs(t, err, contracts.ErrDuplicateTaxID)
	assert.Equal(t, 1, repo.creates, "duplicate is rejected without an insert")

	repo.lookupErr = errors.New("connection reset")
	in := techInput()
	in.TaxID = "9876543210"
	_, err = svc.Create(ctx, in, nil)
	assert.ErrorContains(t, err, "check tax id")
	assert.Equal(t, 1, repo.creates)
}

func TestService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, techInput(), nil)
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 5_000_000.0, detail.Equity)
	require.NotNil(t, detail.DebtToEquityRatio)
	assert.InDelta(t, 0.6, *detail.DebtToEquityRatio, 1e-9)
	assert.Nil(t, detail.LatestFinancialMetrics)

	_, err = f.svc.AddMetrics(ctx, c.ID, MetricInput{Period: "2024-12", Revenue: 10_000_000, CurrentRatio: 2})
	require.NoError(t, err)

	detail, err = f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.LatestFinancialMetrics)
	assert.Equal(t, "2024-12", detail.LatestFinancialMetrics.Period)

	_, err = f.svc.Get(ctx, 404)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestService_UpdateRescoresOnFinancialChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := techInput()
	in.CreditLimit = 2_000_000
	c, err := f.svc.Create(ctx, in, nil)
	require.NoError(t, err)

	// Name-only update keeps scores
	updated, err := f.svc.Update(ctx, c.ID, UpdateInput{Name: ptr("Yeni İsim")})
	require.NoError(t, err)
	assert.Equal(t, "Yeni İsim", updated.Name)
	assert.Equal(t, c.PDScore, updated.PDScore)

	// Heavier liabilities push PD up and the score down
	updated, err = f.svc.Update(ctx, c.ID, UpdateInput{Liabilities: ptr(7_900_000.0)})
	require.NoError(t, err)
	assert.Greater(t, updated.PDScore, c.PDScore)
	assert.Less(t, updated.RiskScore, c.RiskScore)
	assert.Equal(t, scoring.RiskLevelFor(updated.RiskScore), updated.RiskLevel)
	assert.Equal(t, scoring.FinancialHealthFor(updated.PDScore), updated.FinancialHealth)
	assert.Equal(t, 2_000_000.0, updated.CreditLimit, "manually set limit is kept")
}

func TestService_UpdateRefreshesUnsetLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, techInput(), nil)
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, c.ID, UpdateInput{CreditLimit: ptr(0.0), Revenue: ptr(2_000_000.0)})
	require.NoError(t, err)
	// min(800K, 400K) * 1.5 / 0.8
	assert.InDelta(t, 750_000, updated.CreditLimit, 0.01)
}

func TestService_UpdateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, techInput(), nil)
	require.NoError(t, err)

	status := contracts.CompanyStatus("deleted")
	_, err = f.svc.Update(ctx, c.ID, UpdateInput{Status: &status})
	assert.ErrorIs(t, err, contracts.ErrValidation)

	_, err = f.svc.Update(ctx, 999, UpdateInput{Name: ptr("x")})
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, techInput(), nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, c.ID))

	detail, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusInactive, detail.Status)

	assert.ErrorIs(t, f.svc.Delete(ctx, 999), contracts.ErrNotFound)
}

func TestService_RecalculateUsesLatestMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := techInput()
	in.CreditLimit = 50_000_000
	c, err := f.svc.Create(ctx, in, nil)
	require.NoError(t, err)
	assert.Nil(t, c.LastAnalysis)

	// Loss-making, highly leveraged statements
	_, err = f.svc.AddMetrics(ctx, c.ID, MetricInput{
		Period:       "2025-Q1",
		Revenue:      10_000_000,
		NetIncome:    -3_000_000,
		DebtToEquity: 6,
		CurrentRatio: 0.4,
		QuickRatio:   0.2,
		ROA:          -0.3,
	})
	require.NoError(t, err)

	res, err := f.svc.Recalculate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Risk calculation completed", res.Message)
	assert.Equal(t, 50.0, res.PDScore, "sector-adjusted PD is clamped to MaxPD")
	assert.Equal(t, contracts.HealthCritical, res.FinancialHealth)
	assert.Equal(t, 2, res.AlertsGenerated, "pd_increase and financial_deterioration")

	detail, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.LastAnalysis)
	assert.WithinDuration(t, time.Now(), *detail.LastAnalysis, time.Minute)
	assert.Equal(t, res.RiskScore, detail.RiskScore)

	_, err = f.svc.Recalculate(ctx, 999)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

type failingChecker struct{}

func (failingChecker) CheckAndGenerate(context.Context, *contracts.Company) ([]*contracts.RiskAlert, error) {
	return nil, errors.New("alert store down")
}

func TestService_AlertFailureDoesNotFailWrite(t *testing.T) {
	db := memory.New()
	svc := NewService(db.Companies(), db.Metrics(), scoring.NewEngine(), failingChecker{}, logger.Nop())

	c, err := svc.Create(context.Background(), techInput(), nil)
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
}

func TestService_AddMetricsUnknownCompany(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddMetrics(context.Background(), 77, MetricInput{Period: "2024"})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = f.svc.ListMetrics(context.Background(), 77)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}

func TestService_CreateWithMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := techInput()
	in.CreditLimit = 50_000_000
	c, risk, err := f.svc.CreateWithMetrics(ctx, in, MetricInput{
		Period:       "2024",
		Revenue:      10_000_000,
		NetIncome:    -3_000_000,
		DebtToEquity: 6,
		CurrentRatio: 0.4,
		QuickRatio:   0.2,
		ROA:          -0.3,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 50.0, c.PDScore, "scored from the snapshot, not the balance sheet")
	assert.Equal(t, c.RiskScore, risk.RiskScore)
	require.NotNil(t, c.LastAnalysis)

	m, err := f.db.Metrics().LatestByCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, m.CompanyID)

	list, err := f.alerts.List(ctx, contracts.AlertFilter{CompanyID: c.ID})
	require.NoError(t, err)
	assert.Len(t, list, 2, "pd_increase and financial_deterioration once each")
	assert.Equal(t, 2, risk.AlertsGenerated)
}

func TestService_CreateWithMetricsRejectsInvalidSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.CreateWithMetrics(ctx, techInput(), MetricInput{Period: "2024", CurrentRatio: -1}, nil)
	assert.ErrorIs(t, err, contracts.ErrValidation)

	_, err = f.db.Companies().GetByTaxID(ctx, techInput().TaxID)
	assert.ErrorIs(t, err, contracts.ErrNotFound, "nothing is stored")
}
