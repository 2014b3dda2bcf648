package services

import (
	"context"

	"github.com/kindlr/kindlr/pkg/models"
)

// SwipeReader is the slice of the swipe service the strategies consume.
type SwipeReader interface {
	GetSwipedIDs(ctx context.Context, userID int64) []int64
	GetTrustScores(ctx context.Context, userIDs []int64) map[int64]float64
}

// SafetyReader is the slice of the safety service the strategies consume.
type SafetyReader interface {
	GetBlockedIDs(ctx context.Context, userID int64) []int64
}

// CandidateStrategy is the uniform contract every candidate producer
// implements. Implementations return empty results rather than errors for
// missing or inactive requesters; an error signals a store failure the
// resolver may fall back from.
type CandidateStrategy interface {
	Name() string
	GetCandidates(ctx context.Context, userID int64, req *models.CandidateRequest) (*models.StrategyResult, error)
}

// MatchEventPublisher emits match-created events for notification fan-out.
// Publishing is fire-and-forget; failures never surface to the caller.
type MatchEventPublisher interface {
	PublishMatchCreated(ctx context.Context, event *models.MatchCreatedEvent)
}
