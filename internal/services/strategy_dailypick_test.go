package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindlr/kindlr/internal/store"
	"github.com/kindlr/kindlr/pkg/models"
)

func pickRows(now time.Time) *pgxmock.Rows {
	expires := now.Add(12 * time.Hour)
	return pgxmock.NewRows([]string{
		"id", "user_id", "candidate_user_id", "score", "rank", "generated_at", "expires_at", "seen", "acted",
	}).
		AddRow(int64(11), int64(1), int64(2), 85.0, 1, now, expires, false, false).
		AddRow(int64(12), int64(1), int64(3), 72.0, 2, now, expires, false, false).
		AddRow(int64(13), int64(1), int64(4), 60.0, 3, now, expires, false, false)
}

func pickProfile(id int64) *models.Profile {
	now := time.Now()
	return &models.Profile{
		ID: id, UserID: id, Gender: "F", Age: 28,
		PreferredGender: "M", MinAge: 25, MaxAge: 35,
		SmokingStatus: models.FrequencyNever, DrinkingStatus: models.FrequencyNever,
		Weights:  models.DefaultScoreWeights(),
		IsActive: true, DesirabilityScore: 50, LastActiveAt: now,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestDailyPickStrategy_ServesRankedBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := store.New(mock, newTestLogger())
	cfg := newTestConfig()
	scorer := NewCompatibilityScorer(st, cfg, newTestLogger())
	live := NewLiveStrategy(st, scorer, NewFilterPipeline(DefaultFilters()...),
		&fakeSwipeReader{}, &fakeSafetyReader{}, cfg, newTestLogger())
	strategy := NewDailyPickStrategy(st, live, newTestLogger())

	now := time.Now()

	mock.ExpectQuery("FROM daily_picks").
		WithArgs(int64(1), pgxmock.AnyArg(), 10).
		WillReturnRows(pickRows(now))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM daily_picks`).
		WithArgs(int64(1), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	for _, id := range []int64{2, 3, 4} {
		mock.ExpectQuery(`WHERE p\.user_id = \$1`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(profileRowValues(pickProfile(id))...))
	}

	mock.ExpectExec("UPDATE daily_picks SET seen = true").
		WithArgs([]int64{11, 12, 13}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	result, err := strategy.GetCandidates(context.Background(), 1, &models.CandidateRequest{Limit: 10})
	require.NoError(t, err)

	require.Len(t, result.Candidates, 3)
	assert.Equal(t, []float64{85, 72, 60}, []float64{
		result.Candidates[0].Compatibility,
		result.Candidates[1].Compatibility,
		result.Candidates[2].Compatibility,
	})
	assert.Equal(t, StrategyNameDailyPick, result.StrategyName)
	assert.True(t, result.QueueExhausted)
	assert.Equal(t, 0, result.SuggestionsRemaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyPickStrategy_RemainingCountsBeyondTheServedPage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := store.New(mock, newTestLogger())
	cfg := newTestConfig()
	scorer := NewCompatibilityScorer(st, cfg, newTestLogger())
	live := NewLiveStrategy(st, scorer, NewFilterPipeline(DefaultFilters()...),
		&fakeSwipeReader{}, &fakeSafetyReader{}, cfg, newTestLogger())
	strategy := NewDailyPickStrategy(st, live, newTestLogger())

	now := time.Now()
	expires := now.Add(12 * time.Hour)

	// Five unseen picks exist; a limit of two serves the top two.
	mock.ExpectQuery("FROM daily_picks").
		WithArgs(int64(1), pgxmock.AnyArg(), 2).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "candidate_user_id", "score", "rank", "generated_at", "expires_at", "seen", "acted",
		}).
			AddRow(int64(11), int64(1), int64(2), 85.0, 1, now, expires, false, false).
			AddRow(int64(12), int64(1), int64(3), 72.0, 2, now, expires, false, false))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM daily_picks`).
		WithArgs(int64(1), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))

	for _, id := range []int64{2, 3} {
		mock.ExpectQuery(`WHERE p\.user_id = \$1`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(profileColumns).AddRow(profileRowValues(pickProfile(id))...))
	}

	mock.ExpectExec("UPDATE daily_picks SET seen = true").
		WithArgs([]int64{11, 12}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	result, err := strategy.GetCandidates(context.Background(), 1, &models.CandidateRequest{Limit: 2})
	require.NoError(t, err)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, 3, result.SuggestionsRemaining)
	assert.False(t, result.QueueExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyPickStrategy_EmptyBatchFallsBackToLive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := store.New(mock, newTestLogger())
	cfg := newTestConfig()
	scorer := NewCompatibilityScorer(st, cfg, newTestLogger())
	live := NewLiveStrategy(st, scorer, NewFilterPipeline(DefaultFilters()...),
		&fakeSwipeReader{}, &fakeSafetyReader{}, cfg, newTestLogger())
	strategy := NewDailyPickStrategy(st, live, newTestLogger())

	mock.ExpectQuery("FROM daily_picks").
		WithArgs(int64(1), pgxmock.AnyArg(), 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "candidate_user_id", "score", "rank", "generated_at", "expires_at", "seen", "acted",
		}))

	// Live fallback: requester lookup comes up empty.
	mock.ExpectQuery(`WHERE p\.user_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(profileColumns))

	result, err := strategy.GetCandidates(context.Background(), 1, &models.CandidateRequest{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, StrategyNameLive, result.StrategyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
