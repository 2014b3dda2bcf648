package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

func testScorer(t *testing.T) *CompatibilityScorer {
	t.Helper()
	return NewCompatibilityScorer(nil, newTestConfig(), newTestLogger())
}

func compatProfiles() (*models.Profile, *models.Profile) {
	requester := &models.Profile{
		UserID: 1, Gender: "M", Age: 30,
		Latitude: 59.33, Longitude: 18.07,
		PreferredGender: "F", MinAge: 25, MaxAge: 35, MaxDistanceKm: 50,
		SmokingStatus: models.FrequencyNever, DrinkingStatus: models.FrequencySometimes,
		EducationLevel: "Bachelor",
		Interests:      []string{"Hiking", "Cooking", "Jazz"},
		Weights:        models.DefaultScoreWeights(),
		LastActiveAt:   time.Now(),
	}
	target := &models.Profile{
		UserID: 2, Gender: "F", Age: 28,
		Latitude: 59.35, Longitude: 18.10,
		PreferredGender: "M", MinAge: 25, MaxAge: 40, MaxDistanceKm: 100,
		SmokingStatus: models.FrequencyNever, DrinkingStatus: models.FrequencySometimes,
		EducationLevel: "Master",
		Interests:      []string{"hiking", "cooking", "painting"},
		Weights:        models.DefaultScoreWeights(),
		LastActiveAt:   time.Now(),
	}
	return requester, target
}

func TestCompatibilityScorer_Compute(t *testing.T) {
	cs := testScorer(t)
	requester, target := compatProfiles()

	b := cs.Compute(requester, target)

	for name, v := range map[string]float64{
		"overall":   b.Overall,
		"location":  b.Location,
		"age":       b.Age,
		"interests": b.Interests,
		"education": b.Education,
		"lifestyle": b.Lifestyle,
		"activity":  b.Activity,
	} {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
}

func TestCompatibilityScorer_Compute_ConfiguredDefaultWeights(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scoring.DefaultWeights.Age = 1.0
	cfg.Scoring.ActivityScoreHalfLifeDays = 7
	cs := NewCompatibilityScorer(nil, config.NewStore(cfg), newTestLogger())

	requester, target := compatProfiles()
	requester.Weights = models.ScoreWeights{}

	b := cs.Compute(requester, target)

	// Only the age weight is configured, so the blend reduces to age plus
	// the fixed activity term.
	expected := roundScore(clampScore((b.Age + activityWeight*b.Activity) / (1 + activityWeight)))
	assert.Equal(t, expected, b.Overall)
}

func TestCompatibilityScorer_Compute_BuiltInWeightsWhenUnconfigured(t *testing.T) {
	// Zero configured weights fall back to the built-in defaults instead
	// of dividing by a zero total weight.
	cfg := &config.Config{}
	cfg.Scoring.ActivityScoreHalfLifeDays = 7
	cs := NewCompatibilityScorer(nil, config.NewStore(cfg), newTestLogger())

	requester, target := compatProfiles()
	requester.Weights = models.ScoreWeights{}

	b := cs.Compute(requester, target)
	assert.Greater(t, b.Overall, 0.0)
	assert.LessOrEqual(t, b.Overall, 100.0)
}

func TestCompatibilityScorer_LocationScore(t *testing.T) {
	cs := testScorer(t)
	requester, target := compatProfiles()

	t.Run("near target scores high", func(t *testing.T) {
		// ~2km of a 50km radius
		score := cs.locationScore(requester, target)
		assert.Greater(t, score, 90.0)
	})

	t.Run("outside radius scores zero", func(t *testing.T) {
		far := *target
		far.Latitude, far.Longitude = 55.60, 13.00 // ~500km
		assert.Equal(t, 0.0, cs.locationScore(requester, &far))
	})
}

func TestCompatibilityScorer_AgeScore(t *testing.T) {
	cs := testScorer(t)
	requester, target := compatProfiles()

	t.Run("midpoint age scores 100", func(t *testing.T) {
		mid := *target
		mid.Age = 30 // midpoint of [25,35]
		assert.InDelta(t, 100.0, cs.ageScore(requester, &mid), 0.001)
	})

	t.Run("range edge scores 50", func(t *testing.T) {
		edge := *target
		edge.Age = 35
		assert.InDelta(t, 50.0, cs.ageScore(requester, &edge), 0.001)
	})

	t.Run("outside range scores zero", func(t *testing.T) {
		out := *target
		out.Age = 40
		assert.Equal(t, 0.0, cs.ageScore(requester, &out))
	})
}

func TestCompatibilityScorer_InterestsScore(t *testing.T) {
	cs := testScorer(t)
	requester, target := compatProfiles()

	t.Run("case-insensitive jaccard", func(t *testing.T) {
		// {hiking, cooking, jazz} vs {hiking, cooking, painting}:
		// 2 shared of 4 distinct
		assert.InDelta(t, 50.0, cs.interestsScore(requester, target), 0.001)
	})

	t.Run("empty set is neutral", func(t *testing.T) {
		bare := *target
		bare.Interests = nil
		assert.Equal(t, 50.0, cs.interestsScore(requester, &bare))
	})
}

func TestCompatibilityScorer_EducationScore(t *testing.T) {
	cs := testScorer(t)
	requester, target := compatProfiles()

	t.Run("one level apart", func(t *testing.T) {
		assert.InDelta(t, 85.0, cs.educationScore(requester, target), 0.001)
	})

	t.Run("floor at 50", func(t *testing.T) {
		phd := *target
		phd.EducationLevel = "PhD"
		hs := *requester
		hs.EducationLevel = "HighSchool"
		assert.Equal(t, 50.0, cs.educationScore(&hs, &phd))
	})

	t.Run("missing level falls back to 70", func(t *testing.T) {
		unknown := *target
		unknown.EducationLevel = ""
		assert.Equal(t, 70.0, cs.educationScore(requester, &unknown))
	})
}

func TestCompatibilityScorer_LifestyleScore(t *testing.T) {
	cs := testScorer(t)
	scoring := &newTestConfig().Get().Scoring

	t.Run("identical lifestyle is 100", func(t *testing.T) {
		requester, target := compatProfiles()
		assert.Equal(t, 100.0, cs.lifestyleScore(requester, target, scoring))
	})

	t.Run("children mismatch subtracts 30", func(t *testing.T) {
		requester, target := compatProfiles()
		target.WantsChildren = true
		assert.Equal(t, 70.0, cs.lifestyleScore(requester, target, scoring))
	})

	t.Run("full smoking distance subtracts the max penalty", func(t *testing.T) {
		requester, target := compatProfiles()
		target.SmokingStatus = models.FrequencyOften // distance 2 -> 20*2/2
		assert.Equal(t, 80.0, cs.lifestyleScore(requester, target, scoring))
	})

	t.Run("religion mismatch only when both present", func(t *testing.T) {
		requester, target := compatProfiles()
		requester.Religion = "A"
		assert.Equal(t, 100.0, cs.lifestyleScore(requester, target, scoring))
		target.Religion = "B"
		assert.Equal(t, 90.0, cs.lifestyleScore(requester, target, scoring))
	})

	t.Run("floors at zero", func(t *testing.T) {
		requester, target := compatProfiles()
		target.WantsChildren = !requester.WantsChildren
		target.HasChildren = true
		target.SmokingStatus = models.FrequencyOften
		target.DrinkingStatus = models.FrequencyOften
		requester.DrinkingStatus = models.FrequencyNever
		requester.Religion, target.Religion = "A", "B"
		score := cs.lifestyleScore(requester, target, scoring)
		assert.GreaterOrEqual(t, score, 0.0)
	})
}

func TestCompatibilityScorer_ActivityScore(t *testing.T) {
	cs := testScorer(t)
	now := time.Now()

	t.Run("active now is ~100", func(t *testing.T) {
		assert.InDelta(t, 100.0, cs.ActivityScore(now, now), 0.5)
	})

	t.Run("half-life days is ~50", func(t *testing.T) {
		assert.InDelta(t, 50.0, cs.ActivityScore(now.Add(-7*24*time.Hour), now), 0.5)
	})

	t.Run("30 days is below 10", func(t *testing.T) {
		assert.Less(t, cs.ActivityScore(now.Add(-30*24*time.Hour), now), 10.0)
	})

	t.Run("zero lastActiveAt takes the fallback", func(t *testing.T) {
		assert.Equal(t, 75.0, cs.ActivityScore(time.Time{}, now))
	})
}

func TestCompatibilityScorer_Score_CacheReadThrough(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := store.New(mock, newTestLogger())
	cs := NewCompatibilityScorer(st, newTestConfig(), newTestLogger())
	requester, target := compatProfiles()

	t.Run("fresh valid row is returned verbatim", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{
			"id", "user_id", "target_user_id", "overall_score", "location_score", "age_score",
			"interests_score", "education_score", "lifestyle_score", "activity_score",
			"calculated_at", "is_valid",
		}).AddRow(int64(1), int64(1), int64(2), 87.3, 90.0, 80.0, 50.0, 85.0, 100.0, 95.0, time.Now(), true)

		mock.ExpectQuery("SELECT id, user_id, target_user_id").
			WithArgs(int64(1), int64(2), pgxmock.AnyArg()).
			WillReturnRows(rows)

		score, err := cs.Score(context.Background(), requester, target)
		require.NoError(t, err)
		assert.Equal(t, 87.3, score)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cache miss computes and writes through", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, target_user_id").
			WithArgs(int64(1), int64(2), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}))

		mock.ExpectExec("INSERT INTO precomputed_scores").
			WithArgs(int64(1), int64(2), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		score, err := cs.Score(context.Background(), requester, target)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
