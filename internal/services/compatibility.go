package services

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

// educationOrdinals ranks education levels for the ordinal-distance score.
// Unknown values map to 0 and fall back to the neutral default.
var educationOrdinals = map[string]int{
	"HighSchool":  1,
	"SomeCollege": 2,
	"Bachelor":    3,
	"Master":      4,
	"PhD":         5,
	"Other":       2,
}

const (
	earthRadiusKm     = 6371.0
	activityFallback  = 75.0
	activityWeight    = 0.5
	neutralScore      = 50.0
	educationFallback = 70.0
)

// CompatibilityScorer produces overall scores in [0,100] for ordered
// (requester, target) pairs, caching results through the precomputed-score
// table.
type CompatibilityScorer struct {
	store  *store.Store
	config *config.Store
	logger *logrus.Logger
	folder cases.Caser
}

func NewCompatibilityScorer(st *store.Store, cfg *config.Store, logger *logrus.Logger) *CompatibilityScorer {
	return &CompatibilityScorer{
		store:  st,
		config: cfg,
		logger: logger,
		folder: cases.Fold(),
	}
}

// Score returns the cached overall score when a fresh valid row exists,
// otherwise computes the breakdown and writes it through the cache.
func (cs *CompatibilityScorer) Score(ctx context.Context, requester, target *models.Profile) (float64, error) {
	ttl := time.Duration(cs.config.Get().Scoring.ScoreCacheHours) * time.Hour

	cached, err := cs.store.GetFreshScore(ctx, requester.UserID, target.UserID, ttl)
	if err != nil {
		cs.logger.WithFields(logrus.Fields{
			"user_id":   requester.UserID,
			"target_id": target.UserID,
			"error":     err,
		}).Warn("Score cache read failed, computing live")
	}
	if cached != nil {
		return cached.OverallScore, nil
	}

	breakdown := cs.Compute(requester, target)

	now := time.Now()
	if err := cs.store.UpsertScore(ctx, &models.PrecomputedScore{
		UserID:         requester.UserID,
		TargetUserID:   target.UserID,
		OverallScore:   breakdown.Overall,
		LocationScore:  breakdown.Location,
		AgeScore:       breakdown.Age,
		InterestsScore: breakdown.Interests,
		EducationScore: breakdown.Education,
		LifestyleScore: breakdown.Lifestyle,
		ActivityScore:  breakdown.Activity,
		CalculatedAt:   now,
	}); err != nil {
		cs.logger.WithFields(logrus.Fields{
			"user_id":   requester.UserID,
			"target_id": target.UserID,
			"error":     err,
		}).Warn("Score cache write failed")
	}

	return breakdown.Overall, nil
}

// Compute evaluates every sub-score and the weighted combination without
// touching the cache.
func (cs *CompatibilityScorer) Compute(requester, target *models.Profile) models.CompatibilityBreakdown {
	scoring := &cs.config.Get().Scoring

	b := models.CompatibilityBreakdown{
		Location:  cs.locationScore(requester, target),
		Age:       cs.ageScore(requester, target),
		Interests: cs.interestsScore(requester, target),
		Education: cs.educationScore(requester, target),
		Lifestyle: cs.lifestyleScore(requester, target, scoring),
		Activity:  cs.ActivityScore(target.LastActiveAt, time.Now()),
	}

	// Profiles without custom weights take the operator-configured
	// defaults; the built-in weights only back an unconfigured snapshot.
	w := requester.Weights
	if w == (models.ScoreWeights{}) {
		w = models.ScoreWeights{
			Location:  scoring.DefaultWeights.Location,
			Age:       scoring.DefaultWeights.Age,
			Interests: scoring.DefaultWeights.Interests,
			Education: scoring.DefaultWeights.Education,
			Lifestyle: scoring.DefaultWeights.Lifestyle,
		}
	}
	if w == (models.ScoreWeights{}) {
		w = models.DefaultScoreWeights()
	}

	weighted := w.Location*b.Location + w.Age*b.Age + w.Interests*b.Interests +
		w.Education*b.Education + w.Lifestyle*b.Lifestyle + activityWeight*b.Activity
	totalWeight := w.Location + w.Age + w.Interests + w.Education + w.Lifestyle + activityWeight

	b.Overall = roundScore(clampScore(weighted / totalWeight))
	return b
}

func (cs *CompatibilityScorer) locationScore(requester, target *models.Profile) float64 {
	if requester.MaxDistanceKm <= 0 {
		return 100
	}
	d := HaversineKm(requester.Latitude, requester.Longitude, target.Latitude, target.Longitude)
	if d > requester.MaxDistanceKm {
		return 0
	}
	return 100 * (1 - d/requester.MaxDistanceKm)
}

func (cs *CompatibilityScorer) ageScore(requester, target *models.Profile) float64 {
	if target.Age < requester.MinAge || target.Age > requester.MaxAge {
		return 0
	}
	midpoint := float64(requester.MinAge+requester.MaxAge) / 2
	halfRange := float64(requester.MaxAge-requester.MinAge) / 2
	if halfRange == 0 {
		return 100
	}
	return 100 - (math.Abs(float64(target.Age)-midpoint)/halfRange)*50
}

func (cs *CompatibilityScorer) interestsScore(requester, target *models.Profile) float64 {
	if len(requester.Interests) == 0 || len(target.Interests) == 0 {
		return neutralScore
	}

	a := make(map[string]bool, len(requester.Interests))
	for _, in := range requester.Interests {
		a[cs.folder.String(in)] = true
	}

	intersection := 0
	union := len(a)
	seen := make(map[string]bool, len(target.Interests))
	for _, in := range target.Interests {
		folded := cs.folder.String(in)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		if a[folded] {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union) * 100
}

func (cs *CompatibilityScorer) educationScore(requester, target *models.Profile) float64 {
	ra, ok1 := educationOrdinals[requester.EducationLevel]
	ta, ok2 := educationOrdinals[target.EducationLevel]
	if !ok1 || !ok2 {
		return educationFallback
	}
	delta := math.Abs(float64(ra - ta))
	return math.Max(50, 100-15*delta)
}

func (cs *CompatibilityScorer) lifestyleScore(requester, target *models.Profile, scoring *config.ScoringConfig) float64 {
	score := 100.0

	if requester.WantsChildren != target.WantsChildren {
		score -= scoring.ChildrenMismatchPenalty
	}
	if requester.HasChildren != target.HasChildren && (requester.HasChildren || target.HasChildren) {
		score -= 15
	}

	score -= scoring.SmokingMismatchPenalty * frequencyDistance(requester.SmokingStatus, target.SmokingStatus) / 2
	score -= scoring.DrinkingMismatchPenalty * frequencyDistance(requester.DrinkingStatus, target.DrinkingStatus) / 2

	if requester.Religion != "" && target.Religion != "" && requester.Religion != target.Religion {
		score -= scoring.ReligionMismatchPenalty
	}

	return math.Max(0, score)
}

// ActivityScore decays exponentially from lastActiveAt with the configured
// half-life. A zero lastActiveAt has no signal and takes the fallback.
func (cs *CompatibilityScorer) ActivityScore(lastActiveAt, now time.Time) float64 {
	if lastActiveAt.IsZero() {
		return activityFallback
	}
	halfLife := cs.config.Get().Scoring.ActivityScoreHalfLifeDays
	if halfLife <= 0 {
		halfLife = 7
	}
	days := now.Sub(lastActiveAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return clampScore(100 * math.Exp(-math.Ln2*days/halfLife))
}

func frequencyDistance(a, b string) float64 {
	ord := map[string]float64{
		models.FrequencyNever:     0,
		models.FrequencySometimes: 1,
		models.FrequencyOften:     2,
	}
	return math.Abs(ord[a] - ord[b])
}

// HaversineKm is the great-circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundScore(v float64) float64 {
	return math.Round(v*10) / 10
}
