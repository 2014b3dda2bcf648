package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

// DailyPickStrategy serves the generator's curated batch in rank order,
// marking served rows seen. An empty batch falls back to Live.
type DailyPickStrategy struct {
	store  *store.Store
	live   *LiveStrategy
	logger *logrus.Logger
}

func NewDailyPickStrategy(st *store.Store, live *LiveStrategy, logger *logrus.Logger) *DailyPickStrategy {
	return &DailyPickStrategy{store: st, live: live, logger: logger}
}

func (s *DailyPickStrategy) Name() string { return StrategyNameDailyPick }

func (s *DailyPickStrategy) GetCandidates(ctx context.Context, userID int64, req *models.CandidateRequest) (*models.StrategyResult, error) {
	start := time.Now()
	now := time.Now()

	picks, err := s.store.GetServablePicks(ctx, userID, now, req.Limit)
	if err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		s.logger.WithField("user_id", userID).Debug("No daily picks, falling back to live")
		return s.live.GetCandidates(ctx, userID, req)
	}

	// Count the whole unseen queue, not just the page we are about to
	// serve, so the remaining figure survives a small limit.
	totalUnseen, err := s.store.CountUnseenPicks(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	unseenBefore := 0
	servedIDs := make([]int64, 0, len(picks))
	candidates := make([]models.Candidate, 0, len(picks))
	for _, pick := range picks {
		if !pick.Seen {
			unseenBefore++
		}
		servedIDs = append(servedIDs, pick.ID)

		p, err := s.store.GetProfile(ctx, pick.CandidateUserID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, models.Candidate{
			UserID:             p.UserID,
			Age:                p.Age,
			Gender:             p.Gender,
			City:               p.City,
			Compatibility:      pick.Score,
			CompatibilityScore: pick.Score,
			ActivityScore:      s.live.scorer.ActivityScore(p.LastActiveAt, now),
			DesirabilityScore:  p.DesirabilityScore,
			StrategyUsed:       StrategyNameDailyPick,
			IsVerified:         p.IsVerified,
			Interests:          p.Interests,
		})
	}

	if err := s.store.MarkPicksSeen(ctx, servedIDs); err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Failed to mark picks seen")
	}

	remaining := totalUnseen - unseenBefore
	if remaining < 0 {
		remaining = 0
	}

	return &models.StrategyResult{
		Candidates:           candidates,
		TotalFiltered:        len(picks),
		TotalScored:          len(candidates),
		StrategyName:         StrategyNameDailyPick,
		Elapsed:              time.Since(start),
		QueueExhausted:       remaining == 0,
		SuggestionsRemaining: remaining,
	}, nil
}
