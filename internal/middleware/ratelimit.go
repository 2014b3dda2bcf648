package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
)

// RateLimit enforces a per-user sliding-window request ceiling backed by
// Redis. It runs after Auth and keys on user_id, falling back to the client
// IP for requests outside the authed group. Redis failures fail open so an
// unavailable cache never blocks traffic.
func RateLimit(cache *redis.Client, cfg *config.Store, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rl := cfg.Get().Security.RateLimit
		if !rl.Enabled {
			c.Next()
			return
		}

		limit := rl.RequestsPerMinute
		if PremiumFromContext(c) && rl.PremiumRequestsPerMinute > limit {
			limit = rl.PremiumRequestsPerMinute
		}

		key := "rate_limit:ip:" + c.ClientIP()
		if v, ok := c.Get("user_id"); ok {
			if id, ok := v.(int64); ok {
				key = fmt.Sprintf("rate_limit:user:%d", id)
			}
		}

		now := time.Now()
		windowStart := now.Add(-time.Minute)

		pipe := cache.Pipeline()
		pipe.ZRemRangeByScore(c.Request.Context(), key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
		pipe.ZAdd(c.Request.Context(), key, redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: now.UnixNano(),
		})
		count := pipe.ZCard(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, 2*time.Minute)

		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			logger.WithField("error", err).Warn("Rate limit check failed, allowing request")
			c.Next()
			return
		}

		used := count.Val()
		remaining := int64(limit) - used
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(now.Add(time.Minute).Unix(), 10))

		if used > int64(limit) {
			logger.WithFields(logrus.Fields{
				"key":   key,
				"limit": limit,
			}).Warn("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Rate limit exceeded. Please try again later.",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
