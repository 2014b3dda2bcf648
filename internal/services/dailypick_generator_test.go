package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindlr/kindlr/internal/store"
)

func TestBatchParamsFor(t *testing.T) {
	tests := []struct {
		name      string
		users     int
		batchSize int
		delay     time.Duration
	}{
		{"tiny population runs in one batch", 500, 0, 0},
		{"just below the first threshold", 999, 0, 0},
		{"small population", 1000, 100, 100 * time.Millisecond},
		{"medium population", 50000, 200, 500 * time.Millisecond},
		{"large population", 100000, 500, time.Second},
		{"very large population", 2000000, 500, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := batchParamsFor(tt.users)
			assert.Equal(t, tt.batchSize, p.batchSize)
			assert.Equal(t, tt.delay, p.delay)
		})
	}
}

func TestNextGenerationTime(t *testing.T) {
	base := time.Date(2025, 6, 10, 1, 30, 0, 0, time.UTC)

	t.Run("later the same day", func(t *testing.T) {
		next := nextGenerationTime("03:00", base)
		assert.Equal(t, time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC), next)
	})

	t.Run("already past rolls to tomorrow", func(t *testing.T) {
		next := nextGenerationTime("03:00", base.Add(4*time.Hour))
		assert.Equal(t, time.Date(2025, 6, 11, 3, 0, 0, 0, time.UTC), next)
	})

	t.Run("exactly at the mark rolls forward", func(t *testing.T) {
		at := time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC)
		next := nextGenerationTime("03:00", at)
		assert.True(t, next.After(at))
	})

	t.Run("malformed time falls back to 03:00", func(t *testing.T) {
		next := nextGenerationTime("not-a-time", base)
		assert.Equal(t, 3, next.Hour())
		assert.Equal(t, 0, next.Minute())
	})
}

func TestGenerateForUser_SkipsUsersCoveredThisCycle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	st := store.New(mock, newTestLogger())
	cfg := newTestConfig()
	scorer := NewCompatibilityScorer(st, cfg, newTestLogger())
	live := NewLiveStrategy(st, scorer, NewFilterPipeline(DefaultFilters()...),
		&fakeSwipeReader{}, &fakeSafetyReader{}, cfg, newTestLogger())
	g := NewDailyPickGenerator(st, live, cfg, newTestLogger(), nil)

	// A batch generated after the cycle start means the user was already
	// covered; no candidate work runs.
	cycleStart := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM daily_picks`).
		WithArgs(int64(7), cycleStart).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(10))

	require.NoError(t, g.generateForUser(context.Background(), 7, cycleStart))
	assert.NoError(t, mock.ExpectationsWereMet())
}
