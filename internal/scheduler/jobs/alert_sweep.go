package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// CompanySource lists and loads the companies to sweep
type CompanySource interface {
	ListIDsByStatus(ctx context.Context, statuses ...contracts.CompanyStatus) ([]int64, error)
	GetByID(ctx context.Context, id int64) (*contracts.Company, error)
}

// AlertGenerator evaluates the alert rules for one company
type AlertGenerator interface {
	CheckAndGenerate(ctx context.Context, c *contracts.Company) ([]*contracts.RiskAlert, error)
}

// AlertSweepJob re-evaluates alert rules for every active or monitored company
type AlertSweepJob struct {
	companies CompanySource
	alerts    AlertGenerator
	schedule  string
	logger    *logger.Logger
}

// NewAlertSweepJob creates a new alert sweep job
func NewAlertSweepJob(companies CompanySource, alerts AlertGenerator, schedule string, log *logger.Logger) *AlertSweepJob {
	return &AlertSweepJob{
		companies: companies,
		alerts:    alerts,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *AlertSweepJob) Name() string {
	return "alert_sweep"
}

// Schedule returns the cron schedule
func (j *AlertSweepJob) Schedule() string {
	return j.schedule
}

// Run evaluates every company; one failing company does not stop the sweep
func (j *AlertSweepJob) Run(ctx context.Context) error {
	ids, err := j.companies.ListIDsByStatus(ctx, contracts.StatusActive, contracts.StatusMonitoring)
	if err != nil {
		return fmt.Errorf("list companies: %w", err)
	}

	var (
		created int
		failed  int
		errs    []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		c, err := j.companies.GetByID(ctx, id)
		if errors.Is(err, contracts.ErrNotFound) {
			continue
		}
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("company %d: %w", id, err))
			continue
		}

		alerts, err := j.alerts.CheckAndGenerate(ctx, c)
		created += len(alerts)
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("company %d: %w", id, err))
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"companies": len(ids),
		"created":   created,
		"failed":    failed,
	}).Info("Alert sweep completed")

	// Retry only when nothing could be evaluated
	if failed > 0 && failed == len(ids) {
		return errors.Join(errs...)
	}
	return nil
}
