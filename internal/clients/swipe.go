package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/pkg/models"
)

const (
	swipePageSize    = 200
	trustFallback    = 100.0
	trustCacheTTL    = 5 * time.Minute
	trustCachePrefix = "trust_score:%d"
)

// SwipeClient reads swiped-target ids and trust scores from the swipe
// service. Every read fails open: an unreachable service means empty swipe
// sets and full trust rather than a failed candidate request.
type SwipeClient struct {
	http   *http.Client
	config *config.Store
	cache  *redis.Client
	logger *logrus.Logger
}

func NewSwipeClient(cfg *config.Store, cache *redis.Client, logger *logrus.Logger) *SwipeClient {
	return &SwipeClient{
		http:   &http.Client{Timeout: cfg.Get().Clients.RequestTimeout},
		config: cfg,
		cache:  cache,
		logger: logger,
	}
}

// GetSwipedIDs pages through the user's swipe history until a short page.
func (c *SwipeClient) GetSwipedIDs(ctx context.Context, userID int64) []int64 {
	base := c.config.Get().Clients.SwipeServiceURL
	var ids []int64

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/swipes/user/%d?page=%d&pageSize=%d", base, userID, page, swipePageSize)
		var pageIDs []int64
		if err := c.getJSON(ctx, url, &pageIDs); err != nil {
			c.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"page":    page,
				"error":   err,
			}).Warn("Swipe service unavailable, treating swipe list as empty")
			return nil
		}
		ids = append(ids, pageIDs...)
		if len(pageIDs) < swipePageSize {
			return ids
		}
	}
}

// GetTrustScores returns trust in [0,100] for many users, reading through a
// short-lived per-user cache and batch-fetching only the misses. Missing
// users and any failure default to full trust.
func (c *SwipeClient) GetTrustScores(ctx context.Context, userIDs []int64) map[int64]float64 {
	scores := make(map[int64]float64, len(userIDs))
	var missing []int64
	for _, id := range userIDs {
		if cached, err := c.cache.Get(ctx, fmt.Sprintf(trustCachePrefix, id)).Float64(); err == nil {
			scores[id] = cached
			continue
		}
		scores[id] = trustFallback
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return scores
	}

	url := c.config.Get().Clients.SwipeServiceURL + "/internal/swipe-behavior/batch-trust-scores"
	body, err := json.Marshal(map[string][]int64{"userIds": missing})
	if err != nil {
		return scores
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return scores
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithField("error", err).Warn("Batch trust fetch failed, defaulting to full trust")
		return scores
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("Batch trust fetch failed, defaulting to full trust")
		return scores
	}

	var results []models.TrustScore
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return scores
	}
	for _, ts := range results {
		scores[ts.UserID] = ts.TrustScore
		c.cache.Set(ctx, fmt.Sprintf(trustCachePrefix, ts.UserID), ts.TrustScore, trustCacheTTL)
	}
	return scores
}

func (c *SwipeClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
