package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

const (
	StrategyNameLive        = "Live"
	StrategyNamePreComputed = "PreComputed"
	StrategyNameDailyPick   = "DailyPick"
)

// Final-score blend weights over compat, activity and desirability.
const (
	blendCompatWeight       = 0.7
	blendActivityWeight     = 0.15
	blendDesirabilityWeight = 0.15
)

// TrustMultiplier maps trust in [0,100] to a shadow-restrict factor in
// [0.5, 1.0]. Full precision is kept; rounding happens at presentation.
func TrustMultiplier(trust float64) float64 {
	return 0.5 + trust/200
}

// LiveStrategy filters and scores the candidate universe on every request.
type LiveStrategy struct {
	store    *store.Store
	scorer   *CompatibilityScorer
	pipeline *FilterPipeline
	swipes   SwipeReader
	safety   SafetyReader
	config   *config.Store
	logger   *logrus.Logger
}

func NewLiveStrategy(st *store.Store, scorer *CompatibilityScorer, pipeline *FilterPipeline,
	swipes SwipeReader, safety SafetyReader, cfg *config.Store, logger *logrus.Logger) *LiveStrategy {
	return &LiveStrategy{
		store:    st,
		scorer:   scorer,
		pipeline: pipeline,
		swipes:   swipes,
		safety:   safety,
		config:   cfg,
		logger:   logger,
	}
}

func (s *LiveStrategy) Name() string { return StrategyNameLive }

func (s *LiveStrategy) GetCandidates(ctx context.Context, userID int64, req *models.CandidateRequest) (*models.StrategyResult, error) {
	start := time.Now()
	cfg := s.config.Get()

	requester, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return emptyResult(StrategyNameLive, start), nil
	}
	if err != nil {
		return nil, err
	}
	if !requester.IsActive {
		return emptyResult(StrategyNameLive, start), nil
	}

	fc := &FilterContext{
		Requester:  requester,
		SwipedIDs:  s.swipes.GetSwipedIDs(ctx, userID),
		BlockedIDs: s.safety.GetBlockedIDs(ctx, userID),
		Options:    &cfg.Candidates,
	}

	filterLimit := req.Limit * 3
	if max := cfg.Candidates.MaxLimit * 3; filterLimit > max {
		filterLimit = max
	}

	profiles, err := s.store.FindCandidates(ctx, s.pipeline.Compose(fc, filterLimit))
	if err != nil {
		return nil, err
	}

	minScore := req.MinScore
	if minScore <= 0 {
		minScore = cfg.Scoring.MinimumCompatibilityThreshold
	}

	now := time.Now()
	candidates := make([]models.Candidate, 0, len(profiles))
	for _, p := range profiles {
		if req.OnlyVerified && !p.IsVerified {
			continue
		}
		if req.ActiveWithinDays > 0 &&
			now.Sub(p.LastActiveAt) > time.Duration(req.ActiveWithinDays)*24*time.Hour {
			continue
		}

		compat, err := s.scorer.Score(ctx, requester, p)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"user_id":   userID,
				"target_id": p.UserID,
				"error":     err,
			}).Warn("Compatibility scoring failed, skipping candidate")
			continue
		}
		if compat < minScore {
			continue
		}

		activity := s.scorer.ActivityScore(p.LastActiveAt, now)
		candidates = append(candidates, models.Candidate{
			UserID:             p.UserID,
			Age:                p.Age,
			Gender:             p.Gender,
			City:               p.City,
			Compatibility:      blendCompatWeight*compat + blendActivityWeight*activity + blendDesirabilityWeight*p.DesirabilityScore,
			CompatibilityScore: compat,
			ActivityScore:      activity,
			DesirabilityScore:  p.DesirabilityScore,
			StrategyUsed:       StrategyNameLive,
			IsVerified:         p.IsVerified,
			Interests:          p.Interests,
		})
	}

	applyTrustAndRank(ctx, s.swipes, candidates)

	if len(candidates) > req.Limit {
		candidates = candidates[:req.Limit]
	}

	return &models.StrategyResult{
		Candidates:    candidates,
		TotalFiltered: len(profiles),
		TotalScored:   len(candidates),
		StrategyName:  StrategyNameLive,
		Elapsed:       time.Since(start),
	}, nil
}

// applyTrustAndRank shadow-restricts by trust and sorts best-first. Ties
// keep scan order, which is user-id order from the store.
func applyTrustAndRank(ctx context.Context, swipes SwipeReader, candidates []models.Candidate) {
	if len(candidates) == 0 {
		return
	}
	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.UserID
	}
	trust := swipes.GetTrustScores(ctx, ids)

	for i := range candidates {
		candidates[i].Compatibility *= TrustMultiplier(trust[candidates[i].UserID])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Compatibility > candidates[j].Compatibility
	})
}

func emptyResult(name string, start time.Time) *models.StrategyResult {
	return &models.StrategyResult{
		Candidates:     []models.Candidate{},
		StrategyName:   name,
		Elapsed:        time.Since(start),
		QueueExhausted: true,
	}
}
