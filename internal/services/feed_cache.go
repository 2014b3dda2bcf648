package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/pkg/models"
)

const (
	feedCacheTTL   = 90 * time.Second
	feedVersionTTL = 24 * time.Hour
)

// FeedCache keeps recently served candidate feeds in the warm Redis tier.
// Keys carry a per-user version counter; a swipe bumps the version, which
// orphans every cached feed for that user without a key scan.
type FeedCache struct {
	cache  *redis.Client
	logger *logrus.Logger
}

func NewFeedCache(cache *redis.Client, logger *logrus.Logger) *FeedCache {
	return &FeedCache{cache: cache, logger: logger}
}

func (f *FeedCache) key(ctx context.Context, userID int64, strategy string, req *models.CandidateRequest) string {
	ver, _ := f.cache.Get(ctx, fmt.Sprintf("feed_version:%d", userID)).Int64()
	return fmt.Sprintf("candidate_feed:%d:%d:%s:%d:%.1f:%d:%t",
		userID, ver, strategy, req.Limit, req.MinScore, req.ActiveWithinDays, req.OnlyVerified)
}

// Get returns a cached result for the exact request shape, if fresh.
func (f *FeedCache) Get(ctx context.Context, userID int64, strategy string, req *models.CandidateRequest) (*models.StrategyResult, bool) {
	data, err := f.cache.Get(ctx, f.key(ctx, userID, strategy, req)).Bytes()
	if err != nil {
		return nil, false
	}
	var result models.StrategyResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

// Put stores a served feed. Failures are logged and dropped.
func (f *FeedCache) Put(ctx context.Context, userID int64, strategy string, req *models.CandidateRequest, result *models.StrategyResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := f.cache.Set(ctx, f.key(ctx, userID, strategy, req), data, feedCacheTTL).Err(); err != nil {
		f.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Debug("Feed cache write failed")
	}
}

// Invalidate bumps the user's feed version so stale feeds stop matching.
func (f *FeedCache) Invalidate(ctx context.Context, userID int64) {
	key := fmt.Sprintf("feed_version:%d", userID)
	if err := f.cache.Incr(ctx, key).Err(); err != nil {
		f.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Debug("Feed cache invalidation failed")
		return
	}
	f.cache.Expire(ctx, key, feedVersionTTL)
}
