package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

const (
	activeCountKey = "active_profile_count"
	activeCountTTL = 1 * time.Minute
)

// StrategyResolver picks a strategy per request: explicit override first,
// configured strategy next, and for "auto" the active-population threshold.
// Any resolution failure falls back to Live.
type StrategyResolver struct {
	store      *store.Store
	strategies map[string]CandidateStrategy
	live       *LiveStrategy
	cache      *redis.Client
	feed       *FeedCache
	config     *config.Store
	logger     *logrus.Logger
}

func NewStrategyResolver(st *store.Store, live *LiveStrategy, precomputed *PreComputedStrategy,
	dailyPick *DailyPickStrategy, cache *redis.Client, feed *FeedCache, cfg *config.Store, logger *logrus.Logger) *StrategyResolver {
	return &StrategyResolver{
		store: st,
		strategies: map[string]CandidateStrategy{
			"live":        live,
			"precomputed": precomputed,
			"dailypick":   dailyPick,
		},
		live:   live,
		cache:  cache,
		feed:   feed,
		config: cfg,
		logger: logger,
	}
}

// Resolve returns the strategy for a request. Unknown names and dependency
// failures log a warning and return Live.
func (r *StrategyResolver) Resolve(ctx context.Context, override string) CandidateStrategy {
	name := strings.ToLower(strings.TrimSpace(override))
	if name == "" {
		name = strings.ToLower(r.config.Get().Candidates.Strategy)
	}

	if name == "auto" {
		return r.resolveAuto(ctx)
	}
	if s, ok := r.strategies[name]; ok {
		return s
	}

	r.logger.WithField("strategy", name).Warn("Unknown strategy, falling back to live")
	return r.live
}

func (r *StrategyResolver) resolveAuto(ctx context.Context) CandidateStrategy {
	count, err := r.activeUserCount(ctx)
	if err != nil {
		r.logger.WithField("error", err).Warn("Active user count failed, falling back to live")
		return r.live
	}
	if count <= r.config.Get().Candidates.AutoStrategyThresholds.LiveMaxUsers {
		return r.live
	}
	return r.strategies["precomputed"]
}

// activeUserCount reads the briefly-cached active population.
func (r *StrategyResolver) activeUserCount(ctx context.Context) (int, error) {
	if cached, err := r.cache.Get(ctx, activeCountKey).Result(); err == nil {
		if n, err := strconv.Atoi(cached); err == nil {
			return n, nil
		}
	}

	count, err := r.store.CountActiveProfiles(ctx)
	if err != nil {
		return 0, err
	}
	r.cache.Set(ctx, activeCountKey, strconv.Itoa(count), activeCountTTL)
	return count, nil
}

// GetCandidates resolves and runs a strategy, applying the configured
// fallback to Live on strategy error.
func (r *StrategyResolver) GetCandidates(ctx context.Context, userID int64, req *models.CandidateRequest) (*models.StrategyResult, error) {
	strategy := r.Resolve(ctx, req.Strategy)

	if r.feed != nil {
		if cached, ok := r.feed.Get(ctx, userID, strategy.Name(), req); ok {
			return cached, nil
		}
	}

	result, err := strategy.GetCandidates(ctx, userID, req)
	if err != nil && strategy.Name() != StrategyNameLive && r.config.Get().Candidates.FallbackToLiveOnError {
		r.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"strategy": strategy.Name(),
			"error":    err,
		}).Warn("Strategy failed, falling back to live")
		result, err = r.live.GetCandidates(ctx, userID, req)
	}

	if err == nil && r.feed != nil {
		r.feed.Put(ctx, userID, strategy.Name(), req, result)
	}
	return result, err
}
