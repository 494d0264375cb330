// Package app wires services, handlers and the router over a set of repositories.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/finrisk/internal/alerts"
	"github.com/wonny/finrisk/internal/analysis"
	"github.com/wonny/finrisk/internal/api"
	"github.com/wonny/finrisk/internal/api/handlers"
	"github.com/wonny/finrisk/internal/companies"
	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/internal/dashboard"
	"github.com/wonny/finrisk/internal/ingest"
	"github.com/wonny/finrisk/internal/realtime"
	"github.com/wonny/finrisk/internal/report"
	"github.com/wonny/finrisk/internal/scoring"
	"github.com/wonny/finrisk/internal/storage/memory"
	"github.com/wonny/finrisk/internal/storage/postgres"
	"github.com/wonny/finrisk/pkg/logger"
	"github.com/wonny/finrisk/pkg/redis"
)

// Repositories is the persistence surface used by the services
type Repositories struct {
	Companies contracts.CompanyRepository
	Metrics   contracts.FinancialMetricRepository
	Alerts    contracts.AlertRepository
	Analyses  contracts.AnalysisRepository
	Stats     contracts.StatsRepository
}

// PostgresRepositories adapts a postgres store
func PostgresRepositories(s *postgres.Store) Repositories {
	return Repositories{
		Companies: s.Companies,
		Metrics:   s.Metrics,
		Alerts:    s.Alerts,
		Analyses:  s.Analyses,
		Stats:     s.Stats,
	}
}

// MemoryRepositories adapts an in-memory store
func MemoryRepositories(db *memory.DB) Repositories {
	return Repositories{
		Companies: db.Companies(),
		Metrics:   db.Metrics(),
		Alerts:    db.Alerts(),
		Analyses:  db.Analyses(),
		Stats:     db.Stats(),
	}
}

// Options tunes the wiring; zero values fall back to defaults
type Options struct {
	Engine          *scoring.Engine
	DedupWindow     time.Duration
	Cache           dashboard.Cache // nil disables dashboard caching
	StatsTTL        time.Duration
	Limiter         *redis.RateLimiter
	RecalcPerMinute int
	Health          func(ctx context.Context) error
}

// App holds every service of one process
type App struct {
	Repos     Repositories
	Engine    *scoring.Engine
	Hub       *realtime.Hub
	Alerts    *alerts.Service
	Companies *companies.Service
	Analysis  *analysis.Service
	Dashboard *dashboard.Service
	Reports   *report.Service
	Importer  *ingest.Importer

	opts Options
	log  *logger.Logger
}

// New builds the services over repos
func New(repos Repositories, log *logger.Logger, opts Options) *App {
	engine := opts.Engine
	if engine == nil {
		engine = scoring.NewEngine()
	}

	hub := realtime.NewHub(log)
	alertSvc := alerts.NewService(repos.Alerts, log,
		alerts.WithDedupWindow(opts.DedupWindow),
		alerts.WithPublisher(hub),
	)
	companySvc := companies.NewService(repos.Companies, repos.Metrics, engine, alertSvc, log)

	return &App{
		Repos:     repos,
		Engine:    engine,
		Hub:       hub,
		Alerts:    alertSvc,
		Companies: companySvc,
		Analysis:  analysis.NewService(repos.Companies, repos.Metrics, repos.Analyses, engine, log),
		Dashboard: dashboard.NewService(repos.Stats, opts.Cache, opts.StatsTTL, log),
		Reports:   report.NewService(companySvc, repos.Alerts, engine, log),
		Importer:  ingest.NewImporter(companySvc, log),
		opts:      opts,
		log:       log,
	}
}

// Router builds the HTTP router over the services
func (a *App) Router() http.Handler {
	invalidate := func(ctx context.Context) { a.Dashboard.Invalidate(ctx) }

	h := api.Handlers{
		Companies: handlers.NewCompanyHandler(a.Companies, a.Analysis, a.Reports, invalidate, a.log),
		Analyses:  handlers.NewAnalysisHandler(a.Analysis, a.log),
		Alerts:    handlers.NewAlertHandler(a.Alerts, a.Repos.Alerts, a.Repos.Companies, invalidate, a.log),
		Dashboard: handlers.NewDashboardHandler(a.Dashboard, a.log),
		Ingest:    handlers.NewIngestHandler(a.Importer, invalidate, a.log),
		AlertFeed: a.Hub,
	}

	return api.NewRouter(h, api.RouterOptions{
		Limiter:         a.opts.Limiter,
		RecalcPerMinute: a.opts.RecalcPerMinute,
		Health:          a.opts.Health,
	}, a.log)
}
