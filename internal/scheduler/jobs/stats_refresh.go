package jobs

import (
	"context"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

// StatsRefresher recomputes the cached dashboard aggregate
type StatsRefresher interface {
	Refresh(ctx context.Context) (*contracts.DashboardStats, error)
}

// StatsRefreshJob keeps the dashboard cache warm
type StatsRefreshJob struct {
	dashboard StatsRefresher
	schedule  string
	logger    *logger.Logger
}

// NewStatsRefreshJob creates a new stats refresh job
func NewStatsRefreshJob(dashboard StatsRefresher, schedule string, log *logger.Logger) *StatsRefreshJob {
	return &StatsRefreshJob{
		dashboard: dashboard,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *StatsRefreshJob) Name() string {
	return "stats_refresh"
}

// Schedule returns the cron schedule
func (j *StatsRefreshJob) Schedule() string {
	return j.schedule
}

// Run recomputes the aggregate
func (j *StatsRefreshJob) Run(ctx context.Context) error {
	stats, err := j.dashboard.Refresh(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"total_companies": stats.TotalCompanies,
		"total_alerts":    stats.TotalAlerts,
	}).Debug("Dashboard stats refreshed")
	return nil
}
