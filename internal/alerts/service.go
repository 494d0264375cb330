package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// DefaultDedupWindow suppresses repeated pd_increase alerts for a company
const DefaultDedupWindow = 7 * 24 * time.Hour

// Rule thresholds
const (
	pdAlertThreshold     = 10.0 // %
	pdCriticalThreshold  = 15.0 // %
	creditUsageWarnRatio = 0.8
	creditUsageCritical  = 95.0 // %
)

// Publisher receives every alert right after it is stored
type Publisher interface {
	PublishAlert(alert *contracts.RiskAlert)
}

// Service evaluates alert rules against a company and manages alert state
// ⭐ SSOT: alert rules and their thresholds live only here
type Service struct {
	store     contracts.AlertStore
	log       *logger.Logger
	publisher Publisher
	window    time.Duration
	now       func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithDedupWindow sets the pd_increase dedup window
func WithDedupWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithClock replaces time.Now (tests)
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher forwards created alerts to p
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates an alert service over store
func NewService(store contracts.AlertStore, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		log:    log,
		window: DefaultDedupWindow,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rule returns the alert to raise, or nil when the rule does not fire
type rule struct {
	name     string
	evaluate func(ctx context.Context, c *contracts.Company) (*contracts.RiskAlert, error)
}

func (s *Service) rules() []rule {
	return []rule{
		{"pd_increase", s.checkPD},
		{"credit_limit", s.checkCreditLimit},
		{"financial_deterioration", s.checkFinancialDeterioration},
		{"payment_delay", s.checkPaymentDelay},
	}
}

// CheckAndGenerate evaluates every rule against the company's stored risk fields
// and persists the alerts that fire, in rule order.
// A failing rule does not stop the remaining ones; all failures are joined.
func (s *Service) CheckAndGenerate(ctx context.Context, c *contracts.Company) ([]*contracts.RiskAlert, error) {
	var (
		created []*contracts.RiskAlert
		errs    []error
	)

	for _, r := range s.rules() {
		alert, err := r.evaluate(ctx, c)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s rule: %w", r.name, err))
			continue
		}
		if alert == nil {
			continue
		}
		if err := s.store.Create(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s rule: create alert: %w", r.name, err))
			continue
		}
		created = append(created, alert)
		s.publish(alert)
	}

	if len(created) > 0 {
		s.log.WithFields(map[string]interface{}{
			"company_id": c.ID,
			"alerts":     len(created),
		}).Info("risk alerts generated")
	}

	return created, errors.Join(errs...)
}

func (s *Service) publish(alert *contracts.RiskAlert) {
	if s.publisher != nil {
		s.publisher.PublishAlert(alert)
	}
}

// =============================================================================
// Rules
// =============================================================================

// checkPD fires above 10% PD unless a pd_increase alert exists within the window
func (s *Service) checkPD(ctx context.Context, c *contracts.Company) (*contracts.RiskAlert, error) {
	if c.PDScore <= pdAlertThreshold {
		return nil, nil
	}

	exists, err := s.store.ExistsSince(ctx, c.ID, contracts.AlertPDIncrease, s.now().Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("check recent alert: %w", err)
	}
	if exists {
		return nil, nil
	}

	severity := contracts.SeverityHigh
	if c.PDScore > pdCriticalThreshold {
		severity = contracts.SeverityCritical
	}

	return &contracts.RiskAlert{
		CompanyID:      c.ID,
		AlertType:      contracts.AlertPDIncrease,
		Severity:       severity,
		Title:          fmt.Sprintf("PD Skoru Yüksek Risk: %s", c.Name),
		Message:        fmt.Sprintf("PD skoru %%%.1f seviyesine yükseldi. Acil risk değerlendirmesi gerekli.", c.PDScore),
		ThresholdValue: "10.0%",
		CurrentValue:   fmt.Sprintf("%.1f%%", c.PDScore),
	}, nil
}

// checkCreditLimit fires when liabilities exceed 80% of the credit limit
// Not deduplicated. Skipped when no limit is set.
func (s *Service) checkCreditLimit(_ context.Context, c *contracts.Company) (*contracts.RiskAlert, error) {
	if c.CreditLimit <= 0 || c.Liabilities <= c.CreditLimit*creditUsageWarnRatio {
		return nil, nil
	}

	usage := c.Liabilities / c.CreditLimit * 100
	severity := contracts.SeverityHigh
	if usage > creditUsageCritical {
		severity = contracts.SeverityCritical
	}

	return &contracts.RiskAlert{
		CompanyID:      c.ID,
		AlertType:      contracts.AlertCreditLimit,
		Severity:       severity,
		Title:          fmt.Sprintf("Kredi Limit Uyarısı: %s", c.Name),
		Message:        fmt.Sprintf("Kredi kullanım oranı %%%.1f seviyesinde. Limit aşım riski var.", usage),
		ThresholdValue: "80%",
		CurrentValue:   fmt.Sprintf("%.1f%%", usage),
	}, nil
}

// checkFinancialDeterioration fires for poor or critical financial health
func (s *Service) checkFinancialDeterioration(_ context.Context, c *contracts.Company) (*contracts.RiskAlert, error) {
	var severity contracts.Severity
	switch c.FinancialHealth {
	case contracts.HealthCritical:
		severity = contracts.SeverityCritical
	case contracts.HealthPoor:
		severity = contracts.SeverityHigh
	default:
		return nil, nil
	}

	return &contracts.RiskAlert{
		CompanyID:    c.ID,
		AlertType:    contracts.AlertFinancialDeterioration,
		Severity:     severity,
		Title:        fmt.Sprintf("Finansal Durum Kötüleşmesi: %s", c.Name),
		Message:      fmt.Sprintf("Finansal sağlık durumu '%s' seviyesine düştü.", c.FinancialHealth),
		CurrentValue: string(c.FinancialHealth),
	}, nil
}

// checkPaymentDelay fires for companies on the monitoring list
func (s *Service) checkPaymentDelay(_ context.Context, c *contracts.Company) (*contracts.RiskAlert, error) {
	if c.Status != contracts.StatusMonitoring {
		return nil, nil
	}

	return &contracts.RiskAlert{
		CompanyID:    c.ID,
		AlertType:    contracts.AlertPaymentDelay,
		Severity:     contracts.SeverityMedium,
		Title:        fmt.Sprintf("Ödeme Takip Uyarısı: %s", c.Name),
		Message:      "Firma izleme listesinde. Ödeme performansı yakından takip ediliyor.",
		CurrentValue: string(contracts.StatusMonitoring),
	}, nil
}

// =============================================================================
// Mutators
// =============================================================================

// MarkAsRead flags an alert as read; false when it does not exist
func (s *Service) MarkAsRead(ctx context.Context, alertID int64, userID *int64) (bool, error) {
	ok, err := s.store.MarkRead(ctx, alertID)
	if err != nil {
		return false, fmt.Errorf("mark alert %d read: %w", alertID, err)
	}
	if ok {
		s.log.WithFields(map[string]interface{}{"alert_id": alertID, "user_id": userID}).Debug("alert marked as read")
	}
	return ok, nil
}

// Resolve closes an alert and records who resolved it; false when it does not exist
func (s *Service) Resolve(ctx context.Context, alertID int64, userID *int64) (bool, error) {
	ok, err := s.store.Resolve(ctx, alertID, userID, s.now())
	if err != nil {
		return false, fmt.Errorf("resolve alert %d: %w", alertID, err)
	}
	if ok {
		s.log.WithFields(map[string]interface{}{"alert_id": alertID, "user_id": userID}).Info("alert resolved")
	}
	return ok, nil
}
