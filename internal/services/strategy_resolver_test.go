package services

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindlr/kindlr/internal/store"
)

// unreachableRedis yields a client whose every command fails fast, so the
// resolver exercises its cache-miss path.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func newTestResolver(t *testing.T, mock pgxmock.PgxPoolIface) *StrategyResolver {
	t.Helper()
	st := store.New(mock, newTestLogger())
	cfg := newTestConfig()
	scorer := NewCompatibilityScorer(st, cfg, newTestLogger())
	pipeline := NewFilterPipeline(DefaultFilters()...)
	swipes := &fakeSwipeReader{}
	safety := &fakeSafetyReader{}

	live := NewLiveStrategy(st, scorer, pipeline, swipes, safety, cfg, newTestLogger())
	precomputed := NewPreComputedStrategy(st, live, pipeline, swipes, safety, cfg, newTestLogger())
	dailyPick := NewDailyPickStrategy(st, live, newTestLogger())

	return NewStrategyResolver(st, live, precomputed, dailyPick, unreachableRedis(), nil, cfg, newTestLogger())
}

func TestStrategyResolver_Resolve(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := newTestResolver(t, mock)

	t.Run("explicit override wins", func(t *testing.T) {
		assert.Equal(t, StrategyNameLive, r.Resolve(context.Background(), "live").Name())
		assert.Equal(t, StrategyNamePreComputed, r.Resolve(context.Background(), "precomputed").Name())
		assert.Equal(t, StrategyNameDailyPick, r.Resolve(context.Background(), "dailypick").Name())
	})

	t.Run("override is case-insensitive", func(t *testing.T) {
		assert.Equal(t, StrategyNamePreComputed, r.Resolve(context.Background(), "PreComputed").Name())
	})

	t.Run("unknown strategy falls back to live", func(t *testing.T) {
		assert.Equal(t, StrategyNameLive, r.Resolve(context.Background(), "quantum").Name())
	})

	t.Run("auto picks live below the population threshold", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(500))

		assert.Equal(t, StrategyNameLive, r.Resolve(context.Background(), "auto").Name())
	})

	t.Run("auto picks precomputed above the threshold", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(20000))

		assert.Equal(t, StrategyNamePreComputed, r.Resolve(context.Background(), "auto").Name())
	})

	t.Run("count failure falls back to live", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnError(assert.AnError)

		assert.Equal(t, StrategyNameLive, r.Resolve(context.Background(), "auto").Name())
	})
}
