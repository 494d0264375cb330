// Package dashboard serves the cached dashboard aggregate.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
	"github.com/wonny/finrisk/pkg/redis"
)

// Cache is the subset of redis.Cache used for the aggregate
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var _ Cache = (*redis.Cache)(nil)

// Service reads dashboard stats through the cache
type Service struct {
	repo  contracts.StatsRepository
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewService creates a dashboard service; cache may be nil
func NewService(repo contracts.StatsRepository, cache Cache, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = redis.TTLShort
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, log: log}
}

// Stats returns the cached aggregate, computing it on a miss
// Cache failures degrade to a direct query.
func (s *Service) Stats(ctx context.Context) (*contracts.DashboardStats, error) {
	if s.cache != nil {
		var cached contracts.DashboardStats
		found, err := s.cache.Get(ctx, redis.DashboardStatsKey, &cached)
		if err != nil {
			s.log.WithError(err).Warn("dashboard cache read failed")
		}
		if found {
			return &cached, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the aggregate and stores it in the cache
func (s *Service) Refresh(ctx context.Context) (*contracts.DashboardStats, error) {
	stats, err := s.repo.DashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute dashboard stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.DashboardStatsKey, stats, s.ttl); err != nil {
			s.log.WithError(err).Warn("dashboard cache write failed")
		}
	}
	return stats, nil
}

// Invalidate drops the cached aggregate
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, redis.DashboardStatsKey); err != nil {
		s.log.WithError(err).Warn("dashboard cache invalidate failed")
	}
}
