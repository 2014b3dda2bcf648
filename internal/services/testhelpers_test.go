package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/pkg/models"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestConfig() *config.Store {
	cfg := &config.Config{}
	cfg.Candidates.Strategy = "auto"
	cfg.Candidates.DefaultLimit = 20
	cfg.Candidates.MaxLimit = 50
	cfg.Candidates.FallbackToLiveOnError = true
	cfg.Candidates.AutoStrategyThresholds.LiveMaxUsers = 10000

	cfg.Scoring.DefaultWeights.Location = 1.0
	cfg.Scoring.DefaultWeights.Age = 1.0
	cfg.Scoring.DefaultWeights.Interests = 1.0
	cfg.Scoring.DefaultWeights.Education = 0.5
	cfg.Scoring.DefaultWeights.Lifestyle = 1.0
	cfg.Scoring.ScoreCacheHours = 24
	cfg.Scoring.ChildrenMismatchPenalty = 30
	cfg.Scoring.SmokingMismatchPenalty = 20
	cfg.Scoring.DrinkingMismatchPenalty = 15
	cfg.Scoring.ReligionMismatchPenalty = 10
	cfg.Scoring.ActivityScoreHalfLifeDays = 7

	cfg.Background.Enabled = true
	cfg.Background.RefreshIntervalMinutes = 30
	cfg.Background.MaxUsersPerCycle = 100
	cfg.Background.OnlyRefreshActiveUsers = true
	cfg.Background.ScoreTTLHours = 24
	cfg.Background.SkipRefreshWhenCPUAbove = 80
	cfg.Background.MaxConcurrentScoring = 5

	cfg.DailyPicks.Enabled = true
	cfg.DailyPicks.PicksPerUser = 10
	cfg.DailyPicks.GenerationTimeUTC = "03:00"
	cfg.DailyPicks.ExpiryHours = 24

	cfg.Suggestions.MaxDailySuggestions = 50
	cfg.Suggestions.PremiumMaxDailySuggestions = 150
	cfg.Suggestions.RefreshIntervalHours = 24

	return config.NewStore(cfg)
}

// fakeSwipeReader serves canned swipe data in strategy tests.
type fakeSwipeReader struct {
	swipedIDs []int64
	trust     map[int64]float64
}

func (f *fakeSwipeReader) GetSwipedIDs(ctx context.Context, userID int64) []int64 {
	return f.swipedIDs
}

func (f *fakeSwipeReader) GetTrustScores(ctx context.Context, userIDs []int64) map[int64]float64 {
	out := make(map[int64]float64, len(userIDs))
	for _, id := range userIDs {
		out[id] = 100
		if t, ok := f.trust[id]; ok {
			out[id] = t
		}
	}
	return out
}

// profileColumns mirrors the store's profile scan order.
var profileColumns = []string{
	"id", "user_id", "gender", "age", "latitude", "longitude", "city", "country",
	"preferred_gender", "min_age", "max_age", "max_distance_km", "looking_for",
	"wants_children", "has_children", "smoking_status", "drinking_status", "religion",
	"education_level", "interests",
	"location_weight", "age_weight", "interests_weight", "education_weight", "lifestyle_weight",
	"is_active", "is_verified", "desirability_score", "last_active_at", "created_at", "updated_at",
}

func profileRowValues(p *models.Profile) []interface{} {
	return []interface{}{
		p.ID, p.UserID, p.Gender, p.Age, p.Latitude, p.Longitude, p.City, p.Country,
		p.PreferredGender, p.MinAge, p.MaxAge, p.MaxDistanceKm, p.LookingFor,
		p.WantsChildren, p.HasChildren, p.SmokingStatus, p.DrinkingStatus, p.Religion,
		p.EducationLevel, p.Interests,
		p.Weights.Location, p.Weights.Age, p.Weights.Interests, p.Weights.Education, p.Weights.Lifestyle,
		p.IsActive, p.IsVerified, p.DesirabilityScore, p.LastActiveAt, p.CreatedAt, p.UpdatedAt,
	}
}

type fakeSafetyReader struct {
	blockedIDs []int64
}

func (f *fakeSafetyReader) GetBlockedIDs(ctx context.Context, userID int64) []int64 {
	return f.blockedIDs
}
