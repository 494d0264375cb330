package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrisk/internal/alerts"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/storage/memory"
	"github.com/wonny/finrisk/pkg/logger"
)

func seed(t *testing.T, db *memory.DB, c contracts.Company) int64 {
	t.Helper()
	require.NoError(t, db.Companies().Create(context.Background(), &c))
	return c.ID
}

func alertTypes(t *testing.T, db *memory.DB, companyID int64) []contracts.AlertType {
	t.Helper()
	list, err := db.Alerts().List(context.Background(), contracts.AlertFilter{CompanyID: companyID, Limit: 100})
	require.NoError(t, err)
	types := make([]contracts.AlertType, 0, len(list))
	for _, a := range list {
		types = append(types, a.AlertType)
	}
	return types
}

func TestAlertSweepJob_Run(t *testing.T) {
	db := memory.New()
	ctx := context.Background()

	risky := seed(t, db, contracts.Company{
		Name: "Riskli", TaxID: "1111111111", Sector: "İnşaat",
		PDScore: 12, FinancialHealth: contracts.HealthAverage, Status: contracts.StatusActive,
	})
	dormant := seed(t, db, contracts.Company{
		Name: "Pasif", TaxID: "2222222222", Sector: "İnşaat",
		PDScore: 12, FinancialHealth: contracts.HealthAverage, Status: contracts.StatusInactive,
	})
	watched := seed(t, db, contracts.Company{
		Name: "İzlenen", TaxID: "3333333333", Sector: "Teknoloji",
		PDScore: 1, FinancialHealth: contracts.HealthExcellent, Status: contracts.StatusMonitoring,
	})

	job := NewAlertSweepJob(db.Companies(), alerts.NewService(db.Alerts(), logger.Nop()), "0 0 7 * * *", logger.Nop())
	assert.Equal(t, "alert_sweep", job.Name())
	assert.Equal(t, "0 0 7 * * *", job.Schedule())

	require.NoError(t, job.Run(ctx))
	require.NoError(t, job.Run(ctx))

	// pd_increase is deduplicated, payment_delay is not
	assert.Equal(t, []contracts.AlertType{contracts.AlertPDIncrease}, alertTypes(t, db, risky))
	assert.Empty(t, alertTypes(t, db, dormant))
	assert.Equal(t, []contracts.AlertType{contracts.AlertPaymentDelay, contracts.AlertPaymentDelay}, alertTypes(t, db, watched))
}

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) CheckAndGenerate(ctx context.Context, c *contracts.Company) ([]*contracts.RiskAlert, error) {
	args := m.Called(ctx, c)
	alerts, _ := args.Get(0).([]*contracts.RiskAlert)
	return alerts, args.Error(1)
}

func TestAlertSweepJob_PartialFailure(t *testing.T) {
	db := memory.New()
	first := seed(t, db, contracts.Company{Name: "A", TaxID: "1111111111", Status: contracts.StatusActive})
	seed(t, db, contracts.Company{Name: "B", TaxID: "2222222222", Status: contracts.StatusActive})

	gen := &mockGenerator{}
	gen.On("CheckAndGenerate", mock.Anything, mock.MatchedBy(func(c *contracts.Company) bool { return c.ID == first })).
		Return(nil, errors.New("store down"))
	gen.On("CheckAndGenerate", mock.Anything, mock.Anything).
		Return([]*contracts.RiskAlert{{AlertType: contracts.AlertPDIncrease}}, nil)

	job := NewAlertSweepJob(db.Companies(), gen, "@daily", logger.Nop())
	assert.NoError(t, job.Run(context.Background()))
	gen.AssertNumberOfCalls(t, "CheckAndGenerate", 2)
}

func TestAlertSweepJob_AllFailed(t *testing.T) {
	db := memory.New()
	seed(t, db, contracts.Company{Name: "A", TaxID: "1111111111", Status: contracts.StatusActive})

	gen := &mockGenerator{}
	gen.On("CheckAndGenerate", mock.Anything, mock.Anything).Return(nil, errors.New("store down"))

	job := NewAlertSweepJob(db.Companies(), gen, "@daily", logger.Nop())
	assert.ErrorContains(t, job.Run(context.Background()), "store down")
}

type mockRefresher struct{ mock.Mock }

func (m *mockRefresher) Refresh(ctx context.Context) (*contracts.DashboardStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*contracts.DashboardStats)
	return stats, args.Error(1)
}

func TestStatsRefreshJob_Run(t *testing.T) {
	ref := &mockRefresher{}
	ref.On("Refresh", mock.Anything).Return(&contracts.DashboardStats{TotalCompanies: 3}, nil).Once()
	ref.On("Refresh", mock.Anything).Return(nil, errors.New("db down")).Once()

	job := NewStatsRefreshJob(ref, "0 */5 * * * *", logger.Nop())
	assert.Equal(t, "stats_refresh", job.Name())

	assert.NoError(t, job.Run(context.Background()))
	assert.EqualError(t, job.Run(context.Background()), "db down")
	ref.AssertExpectations(t)
}
