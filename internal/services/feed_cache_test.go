package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kindlr/kindlr/pkg/models"
)

func TestFeedCache_FailsOpen(t *testing.T) {
	feed := NewFeedCache(unreachableRedis(), newTestLogger())
	req := &models.CandidateRequest{Limit: 20}

	_, ok := feed.Get(context.Background(), 1, StrategyNameLive, req)
	assert.False(t, ok)

	// Writes and invalidations against a dead cache are silently dropped.
	feed.Put(context.Background(), 1, StrategyNameLive, req, &models.StrategyResult{StrategyName: StrategyNameLive})
	feed.Invalidate(context.Background(), 1)
}
