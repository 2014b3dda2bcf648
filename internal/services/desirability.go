package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/store"
)

const (
	desirabilityDefault   = 50.0
	desirabilityMinSwipes = 20
	bayesianPriorCount    = 10.0
	bayesianPriorMean     = 0.3
	decayHalfLifeDays     = 30.0
	persistThreshold      = 0.1
	eloKFactor            = 32.0
)

// DesirabilityCalculator maintains the per-profile desirability signal from
// receive-side swipe outcomes.
type DesirabilityCalculator struct {
	store  *store.Store
	logger *logrus.Logger
}

func NewDesirabilityCalculator(st *store.Store, logger *logrus.Logger) *DesirabilityCalculator {
	return &DesirabilityCalculator{store: st, logger: logger}
}

// RecalculateBatch refreshes desirability for each user from their latest
// metric rollup. Per-user failures are logged and skipped.
func (dc *DesirabilityCalculator) RecalculateBatch(ctx context.Context, userIDs []int64) {
	for _, id := range userIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := dc.recalculate(ctx, id); err != nil {
			dc.logger.WithFields(logrus.Fields{
				"user_id": id,
				"error":   err,
			}).Warn("Desirability recalculation failed")
		}
	}
}

func (dc *DesirabilityCalculator) recalculate(ctx context.Context, userID int64) error {
	metric, err := dc.store.GetLatestMetric(ctx, userID)
	if err != nil {
		return err
	}

	var score float64
	if metric == nil || metric.SwipesReceived < desirabilityMinSwipes {
		score = desirabilityDefault
	} else {
		score = DecayedBayesianScore(metric.LikesReceived, metric.SwipesReceived, metric.CalculatedAt, time.Now())
	}

	profile, err := dc.store.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if math.Abs(score-profile.DesirabilityScore) <= persistThreshold {
		return nil
	}

	return dc.store.UpdateDesirability(ctx, userID, score)
}

// DecayedBayesianScore smooths the raw like rate toward a 0.3 prior with 10
// pseudocounts, then decays the result toward the 50 mean as the metric
// ages with a 30-day half-life.
func DecayedBayesianScore(likes, swipes int, calculatedAt, now time.Time) float64 {
	bayesianRate := (float64(likes) + bayesianPriorCount*bayesianPriorMean) /
		(float64(swipes) + bayesianPriorCount)
	baseScore := bayesianRate * 100

	days := now.Sub(calculatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	decay := math.Pow(0.5, days/decayHalfLifeDays)
	return clampScore(desirabilityDefault + (baseScore-desirabilityDefault)*decay)
}

// EloDelta is the rating change applied to the swipe target when a swiper
// of the given desirability likes (or passes on) them.
func EloDelta(swiperDesirability, targetDesirability float64, isLike bool) float64 {
	expected := 1 / (1 + math.Pow(10, (swiperDesirability-targetDesirability)/400))
	actual := 0.0
	if isLike {
		actual = 1.0
	}
	return eloKFactor * (actual - expected)
}

// AdjustForSwipe applies the Elo delta to the target's stored desirability.
func (dc *DesirabilityCalculator) AdjustForSwipe(ctx context.Context, swiperID, targetID int64, isLike bool) error {
	swiper, err := dc.store.GetProfile(ctx, swiperID)
	if err != nil {
		return err
	}
	target, err := dc.store.GetProfile(ctx, targetID)
	if err != nil {
		return err
	}

	delta := EloDelta(swiper.DesirabilityScore, target.DesirabilityScore, isLike)
	newScore := clampScore(target.DesirabilityScore + delta)
	return dc.store.UpdateDesirability(ctx, targetID, newScore)
}
