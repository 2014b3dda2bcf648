package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSuggestionLimiter_CheckAndIncrement(t *testing.T) {
	sl := NewSuggestionLimiter(newTestConfig())

	t.Run("free tier budget counts down", func(t *testing.T) {
		allowed, remaining := sl.CheckAndIncrement(1, false)
		assert.True(t, allowed)
		assert.Equal(t, 49, remaining)
	})

	t.Run("denies at the limit", func(t *testing.T) {
		for i := 0; i < 49; i++ {
			sl.CheckAndIncrement(1, false)
		}
		allowed, remaining := sl.CheckAndIncrement(1, false)
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
	})

	t.Run("premium tier has a larger budget", func(t *testing.T) {
		allowed, remaining := sl.CheckAndIncrement(2, true)
		assert.True(t, allowed)
		assert.Equal(t, 149, remaining)
	})

	t.Run("users are independent", func(t *testing.T) {
		allowed, _ := sl.CheckAndIncrement(3, false)
		assert.True(t, allowed)
	})
}

func TestSuggestionLimiter_Reset(t *testing.T) {
	sl := NewSuggestionLimiter(newTestConfig())

	now := time.Now()
	sl.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		sl.CheckAndIncrement(1, false)
	}
	allowed, _ := sl.CheckAndIncrement(1, false)
	assert.False(t, allowed)

	// Advance past the refresh interval; the budget resets.
	sl.now = func() time.Time { return now.Add(25 * time.Hour) }
	allowed, remaining := sl.CheckAndIncrement(1, false)
	assert.True(t, allowed)
	assert.Equal(t, 49, remaining)
}

func TestSuggestionLimiter_Status(t *testing.T) {
	sl := NewSuggestionLimiter(newTestConfig())

	now := time.Now()
	sl.now = func() time.Time { return now }

	sl.CheckAndIncrement(1, false)
	sl.CheckAndIncrement(1, false)

	status := sl.Status(1, false)
	assert.Equal(t, 2, status.ShownToday)
	assert.Equal(t, 50, status.Max)
	assert.Equal(t, 48, status.Remaining)
	assert.False(t, status.QueueExhausted)
	assert.Equal(t, status.LastResetDate.Add(24*time.Hour), status.NextResetDate)

	t.Run("status does not consume budget", func(t *testing.T) {
		before := sl.Status(1, false).ShownToday
		sl.Status(1, false)
		assert.Equal(t, before, sl.Status(1, false).ShownToday)
	})

	t.Run("exhausted budget reports queueExhausted", func(t *testing.T) {
		for i := 0; i < 48; i++ {
			sl.CheckAndIncrement(1, false)
		}
		status := sl.Status(1, false)
		assert.Equal(t, 0, status.Remaining)
		assert.True(t, status.QueueExhausted)
	})
}
