package commands

import (
	"context"
	"fmt"

	"github.com/wonny/finrisk/internal/app"
	"github.com/wonny/finrisk/internal/scheduler"
	"github.com/wonny/finrisk/internal/scheduler/jobs"
	"github.com/wonny/finrisk/internal/scoring"
	"github.com/wonny/finrisk/internal/storage/postgres"
	"github.com/wonny/finrisk/pkg/config"
	"github.com/wonny/finrisk/pkg/database"
	"github.com/wonny/finrisk/pkg/logger"
	"github.com/wonny/finrisk/pkg/redis"
)

// keyPrefix namespaces every redis key of the process
const keyPrefix = "finrisk"

// loadConfig loads the environment and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newEngine builds the scoring engine, loading the sector table when configured
func newEngine(path string) (*scoring.Engine, error) {
	if path == "" {
		return scoring.NewEngine(), nil
	}
	table, err := scoring.LoadSectorTable(path)
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(scoring.WithSectorTable(table)), nil
}

// stack bundles the connections and services of one command
type stack struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	redis *redis.Client
	app   *app.App
}

// newStack connects to postgres and redis and wires the services
func newStack() (*stack, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	engine, err := newEngine(cfg.Risk.SectorTablePath)
	if err != nil {
		return nil, fmt.Errorf("load sector table: %w", err)
	}

	db, err := database.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rc, err := redis.New(cfg)
	if err != nil {
		// Caching and shared rate limits are optional
		log.WithError(err).Warn("Redis unavailable, continuing without it")
		rc = redis.Disabled()
	}

	a := app.New(app.PostgresRepositories(postgres.NewStore(db.Pool)), log, app.Options{
		Engine:          engine,
		DedupWindow:     cfg.Risk.AlertDedupWindow,
		Cache:           redis.NewCache(rc, keyPrefix),
		StatsTTL:        cfg.Risk.StatsCacheTTL,
		Limiter:         redis.NewRateLimiter(rc, keyPrefix),
		RecalcPerMinute: cfg.RateLimit.RecalcPerMinute,
		Health:          db.Ping,
	})

	log.WithFields(map[string]interface{}{
		"model_version": engine.ModelVersion(),
		"redis":         rc.Enabled(),
	}).Debug("Runtime initialized")

	return &stack{cfg: cfg, log: log, db: db, redis: rc, app: a}, nil
}

// newScheduler registers the background jobs over the stack's services
func (rt *stack) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(rt.log)

	sweep := jobs.NewAlertSweepJob(rt.app.Repos.Companies, rt.app.Alerts, rt.cfg.Scheduler.AlertSweepSchedule, rt.log)
	if err := sched.AddJob(sweep); err != nil {
		return nil, err
	}
	refresh := jobs.NewStatsRefreshJob(rt.app.Dashboard, rt.cfg.Scheduler.StatsRefreshSchedule, rt.log)
	if err := sched.AddJob(refresh); err != nil {
		return nil, err
	}
	return sched, nil
}

func (rt *stack) close() {
	rt.app.Hub.Close()
	if err := rt.redis.Close(); err != nil {
		rt.log.WithError(err).Warn("Failed to close redis")
	}
	rt.db.Close()
}

// withStack runs fn with a connected stack and closes it afterwards
func withStack(fn func(ctx context.Context, rt *stack) error) error {
	rt, err := newStack()
	if err != nil {
		return err
	}
	defer rt.close()
	return fn(context.Background(), rt)
}
