package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

// PreComputedStrategy serves from the background refresher's score table,
// re-applying dealbreakers and supplementing from Live when the table runs
// short.
type PreComputedStrategy struct {
	store    *store.Store
	live     *LiveStrategy
	pipeline *FilterPipeline
	swipes   SwipeReader
	safety   SafetyReader
	config   *config.Store
	logger   *logrus.Logger
}

func NewPreComputedStrategy(st *store.Store, live *LiveStrategy, pipeline *FilterPipeline,
	swipes SwipeReader, safety SafetyReader, cfg *config.Store, logger *logrus.Logger) *PreComputedStrategy {
	return &PreComputedStrategy{
		store:    st,
		live:     live,
		pipeline: pipeline,
		swipes:   swipes,
		safety:   safety,
		config:   cfg,
		logger:   logger,
	}
}

func (s *PreComputedStrategy) Name() string { return StrategyNamePreComputed }

func (s *PreComputedStrategy) GetCandidates(ctx context.Context, userID int64, req *models.CandidateRequest) (*models.StrategyResult, error) {
	start := time.Now()
	cfg := s.config.Get()

	requester, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return emptyResult(StrategyNamePreComputed, start), nil
	}
	if err != nil {
		return nil, err
	}
	if !requester.IsActive {
		return emptyResult(StrategyNamePreComputed, start), nil
	}

	maxAge := time.Duration(cfg.Background.ScoreTTLHours) * time.Hour
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	scores, err := s.store.ListTopScores(ctx, userID, req.Limit*3, maxAge)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		s.logger.WithField("user_id", userID).Debug("No precomputed scores, falling back to live")
		return s.live.GetCandidates(ctx, userID, req)
	}

	// Re-run the dealbreakers so stale rows cannot resurface swiped,
	// blocked or newly-inactive users.
	fc := &FilterContext{
		Requester:  requester,
		SwipedIDs:  s.swipes.GetSwipedIDs(ctx, userID),
		BlockedIDs: s.safety.GetBlockedIDs(ctx, userID),
		Options:    &cfg.Candidates,
	}
	scoredIDs := make([]int64, len(scores))
	for i, sc := range scores {
		scoredIDs[i] = sc.TargetUserID
	}
	q := s.pipeline.Compose(fc, len(scoredIDs)).Where("p.user_id = ANY(?)", scoredIDs)

	surviving, err := s.store.FindCandidates(ctx, q)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Profile, len(surviving))
	for _, p := range surviving {
		byID[p.UserID] = p
	}

	minScore := req.MinScore
	if minScore <= 0 {
		minScore = cfg.Scoring.MinimumCompatibilityThreshold
	}

	candidates := make([]models.Candidate, 0, req.Limit)
	for _, sc := range scores {
		p, ok := byID[sc.TargetUserID]
		if !ok {
			continue
		}
		if req.OnlyVerified && !p.IsVerified {
			continue
		}
		// The refresher stores compat in the lifestyle column.
		if sc.LifestyleScore < minScore {
			continue
		}
		candidates = append(candidates, models.Candidate{
			UserID:             p.UserID,
			Age:                p.Age,
			Gender:             p.Gender,
			City:               p.City,
			Compatibility:      sc.OverallScore,
			CompatibilityScore: sc.LifestyleScore,
			ActivityScore:      sc.ActivityScore,
			DesirabilityScore:  p.DesirabilityScore,
			StrategyUsed:       StrategyNamePreComputed,
			IsVerified:         p.IsVerified,
			Interests:          p.Interests,
		})
		if len(candidates) == req.Limit {
			break
		}
	}

	applyTrustAndRank(ctx, s.swipes, candidates)

	totalScored := len(candidates)
	if len(candidates) < req.Limit {
		candidates = s.supplement(ctx, userID, req, candidates)
	}

	return &models.StrategyResult{
		Candidates:    candidates,
		TotalFiltered: len(surviving),
		TotalScored:   totalScored,
		StrategyName:  StrategyNamePreComputed,
		Elapsed:       time.Since(start),
	}, nil
}

// supplement tops up a short result with live candidates, de-duplicated by
// user id. Supplement failures keep the partial result.
func (s *PreComputedStrategy) supplement(ctx context.Context, userID int64, req *models.CandidateRequest, candidates []models.Candidate) []models.Candidate {
	need := req.Limit - len(candidates)
	liveReq := *req
	liveReq.Limit = need

	liveRes, err := s.live.GetCandidates(ctx, userID, &liveReq)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Live supplement failed, returning partial result")
		return candidates
	}

	have := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		have[c.UserID] = true
	}
	for _, c := range liveRes.Candidates {
		if have[c.UserID] {
			continue
		}
		candidates = append(candidates, c)
		if len(candidates) == req.Limit {
			break
		}
	}
	return candidates
}
