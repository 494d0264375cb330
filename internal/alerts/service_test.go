package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/storage/memory"
	"github.com/wonny/finrisk/pkg/logger"
)

// =============================================================================
// Test helpers
// =============================================================================

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newMemoryService(t *testing.T, opts ...Option) (*Service, *memory.AlertRepository, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	db := memory.New()
	db.SetClock(clock.Now)
	store := db.Alerts()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(store, logger.Nop(), opts...), store, clock
}

type recordingPublisher struct{ alerts []*contracts.RiskAlert }

func (p *recordingPublisher) PublishAlert(a *contracts.RiskAlert) { p.alerts = append(p.alerts, a) }

// mockStore is a testify mock of contracts.AlertStore
type mockStore struct{ mock.Mock }

func (m *mockStore) ExistsSince(ctx context.Context, companyID int64, t contracts.AlertType, since time.Time) (bool, error) {
	args := m.Called(ctx, companyID, t, since)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, alert *contracts.RiskAlert) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *mockStore) MarkRead(ctx context.Context, alertID int64) (bool, error) {
	args := m.Called(ctx, alertID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Resolve(ctx context.Context, alertID int64, userID *int64, at time.Time) (bool, error) {
	args := m.Called(ctx, alertID, userID, at)
	return args.Bool(0), args.Error(1)
}

func quietCompany() *contracts.Company {
	return &contracts.Company{
		ID:              1,
		Name:            "Ege Gıda A.Ş.",
		Liabilities:     1_000_000,
		CreditLimit:     5_000_000,
		PDScore:         2.0,
		FinancialHealth: contracts.HealthGood,
		Status:          contracts.StatusActive,
	}
}

// =============================================================================
// Rules
// =============================================================================

func TestCheckAndGenerate_NoAlerts(t *testing.T) {
	svc, _, _ := newMemoryService(t)

	alerts, err := svc.CheckAndGenerate(context.Background(), quietCompany())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckAndGenerate_AllRules(t *testing.T) {
	pub := &recordingPublisher{}
	svc, _, _ := newMemoryService(t, WithPublisher(pub))

	c := &contracts.Company{
		ID:              7,
		Name:            "Risky Co",
		Liabilities:     900_000,
		CreditLimit:     1_000_000,
		PDScore:         12.0,
		FinancialHealth: contracts.HealthPoor,
		Status:          contracts.StatusMonitoring,
	}

	alerts, err := svc.CheckAndGenerate(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, alerts, 4)

	pd := alerts[0]
	assert.Equal(t, contracts.AlertPDIncrease, pd.AlertType)
	assert.Equal(t, contracts.SeverityHigh, pd.Severity)
	assert.Equal(t, "PD Skoru Yüksek Risk: Risky Co", pd.Title)
	assert.Equal(t, "PD skoru %12.0 seviyesine yükseldi. Acil risk değerlendirmesi gerekli.", pd.Message)
	assert.Equal(t, "10.0%", pd.ThresholdValue)
	assert.Equal(t, "12.0%", pd.CurrentValue)

	limit := alerts[1]
	assert.Equal(t, contracts.AlertCreditLimit, limit.AlertType)
	assert.Equal(t, contracts.SeverityHigh, limit.Severity)
	assert.Equal(t, "90.0%", limit.CurrentValue)
	assert.Equal(t, "80%", limit.ThresholdValue)
	assert.Equal(t, "Kredi kullanım oranı %90.0 seviyesinde. Limit aşım riski var.", limit.Message)

	health := alerts[2]
	assert.Equal(t, contracts.AlertFinancialDeterioration, health.AlertType)
	assert.Equal(t, contracts.SeverityHigh, health.Severity)
	assert.Equal(t, "Finansal sağlık durumu 'poor' seviyesine düştü.", health.Message)
	assert.Equal(t, "poor", health.CurrentValue)

	payment := alerts[3]
	assert.Equal(t, contracts.AlertPaymentDelay, payment.AlertType)
	assert.Equal(t, contracts.SeverityMedium, payment.Severity)
	assert.Equal(t, "monitoring", payment.CurrentValue)

	for _, a := range alerts {
		assert.NotZero(t, a.ID)
		assert.Equal(t, int64(7), a.CompanyID)
		assert.False(t, a.IsRead)
		assert.False(t, a.IsResolved)
	}
	assert.Equal(t, alerts, pub.alerts)
}

func TestCheckAndGenerate_CriticalSeverities(t *testing.T) {
	svc, _, _ := newMemoryService(t)

	c := quietCompany()
	c.PDScore = 22.5
	c.Liabilities = 4_900_000 // 98% of limit
	c.FinancialHealth = contracts.HealthCritical

	alerts, err := svc.CheckAndGenerate(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.Equal(t, contracts.SeverityCritical, a.Severity, a.AlertType)
	}
}

func TestCheckAndGenerate_Thresholds(t *testing.T) {
	svc, _, _ := newMemoryService(t)

	c := quietCompany()
	// Both rules require strictly greater values
	c.PDScore = 10.0
	c.Liabilities = c.CreditLimit * 0.8

	alerts, err := svc.CheckAndGenerate(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckAndGenerate_ZeroCreditLimitSkipsUsageRule(t *testing.T) {
	svc, _, _ := newMemoryService(t)

	c := quietCompany()
	c.CreditLimit = 0

	alerts, err := svc.CheckAndGenerate(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

// =============================================================================
// Dedup
// =============================================================================

func TestCheckAndGenerate_PDAlertDeduplicated(t *testing.T) {
	svc, store, clock := newMemoryService(t)
	ctx := context.Background()

	c := quietCompany()
	c.PDScore = 12.0

	first, err := svc.CheckAndGenerate(ctx, c)
	require.NoError(t, err)
	require.Len(t, first, 1)

	clock.Advance(24 * time.Hour)
	second, err := svc.CheckAndGenerate(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, second)

	list, err := store.List(ctx, contracts.AlertFilter{AlertType: contracts.AlertPDIncrease})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Outside the window the rule fires again
	clock.Advance(7 * 24 * time.Hour)
	third, err := svc.CheckAndGenerate(ctx, c)
	require.NoError(t, err)
	assert.Len(t, third, 1)
}

func TestCheckAndGenerate_CustomDedupWindow(t *testing.T) {
	svc, _, clock := newMemoryService(t, WithDedupWindow(time.Hour))
	ctx := context.Background()

	c := quietCompany()
	c.PDScore = 12.0

	_, err := svc.CheckAndGenerate(ctx, c)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	again, err := svc.CheckAndGenerate(ctx, c)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestCheckAndGenerate_CreditLimitNotDeduplicated(t *testing.T) {
	svc, store, _ := newMemoryService(t)
	ctx := context.Background()

	c := quietCompany()
	c.Liabilities = 4_500_000

	for i := 0; i < 2; i++ {
		alerts, err := svc.CheckAndGenerate(ctx, c)
		require.NoError(t, err)
		require.Len(t, alerts, 1)
	}

	list, err := store.List(ctx, contracts.AlertFilter{AlertType: contracts.AlertCreditLimit})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// =============================================================================
// Error propagation
// =============================================================================

func TestCheckAndGenerate_RuleErrorDoesNotStopOthers(t *testing.T) {
	store := &mockStore{}
	lookupErr := errors.New("connection reset")
	store.On("ExistsSince", mock.Anything, int64(1), contracts.AlertPDIncrease, mock.Anything).Return(false, lookupErr)
	store.On("Create", mock.Anything, mock.MatchedBy(func(a *contracts.RiskAlert) bool {
		return a.AlertType == contracts.AlertPaymentDelay
	})).Return(nil)

	svc := NewService(store, logger.Nop())

	c := quietCompany()
	c.PDScore = 12.0
	c.Status = contracts.StatusMonitoring

	alerts, err := svc.CheckAndGenerate(context.Background(), c)
	require.Error(t, err)
	assert.ErrorIs(t, err, lookupErr)
	assert.Contains(t, err.Error(), "pd_increase rule")
	require.Len(t, alerts, 1)
	assert.Equal(t, contracts.AlertPaymentDelay, alerts[0].AlertType)
	store.AssertExpectations(t)
}

func TestCheckAndGenerate_CreateErrorsJoined(t *testing.T) {
	store := &mockStore{}
	insertErr := errors.New("disk full")
	store.On("Create", mock.Anything, mock.Anything).Return(insertErr)

	svc := NewService(store, logger.Nop())

	c := quietCompany()
	c.Liabilities = 4_500_000
	c.FinancialHealth = contracts.HealthPoor

	alerts, err := svc.CheckAndGenerate(context.Background(), c)
	assert.Empty(t, alerts)
	require.Error(t, err)
	assert.ErrorIs(t, err, insertErr)
	assert.Contains(t, err.Error(), "credit_limit rule")
	assert.Contains(t, err.Error(), "financial_deterioration rule")
	store.AssertNumberOfCalls(t, "Create", 2)
}

// =============================================================================
// Mutators
// =============================================================================

func TestMarkAsReadAndResolve(t *testing.T) {
	svc, store, clock := newMemoryService(t)
	ctx := context.Background()

	c := quietCompany()
	c.Status = contracts.StatusMonitoring
	alerts, err := svc.CheckAndGenerate(ctx, c)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	id := alerts[0].ID

	ok, err := svc.MarkAsRead(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	user := int64(42)
	ok, err = svc.Resolve(ctx, id, &user)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := store.List(ctx, contracts.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
	assert.True(t, list[0].IsResolved)
	require.NotNil(t, list[0].ResolvedAt)
	assert.Equal(t, clock.Now(), *list[0].ResolvedAt)
	assert.Equal(t, &user, list[0].ResolvedBy)

	ok, err = svc.MarkAsRead(ctx, 999, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Resolve(ctx, 999, &user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_StoreError(t *testing.T) {
	store := &mockStore{}
	store.On("Resolve", mock.Anything, int64(5), (*int64)(nil), mock.Anything).Return(false, errors.New("timeout"))

	svc := NewService(store, logger.Nop())
	ok, err := svc.Resolve(context.Background(), 5, nil)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "resolve alert 5")
}
