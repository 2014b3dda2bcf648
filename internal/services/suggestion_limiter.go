package services

import (
	"sync"
	"time"

	"github.com/kindlr/kindlr/internal/config"
	"github.com/kindlr/kindlr/pkg/models"
)

type limiterEntry struct {
	shownToday    int
	lastResetDate time.Time
}

// SuggestionLimiter enforces per-user daily view budgets. State is
// process-local: after a restart every user's budget resets immediately.
// Multi-replica deployments need a shared backend instead.
type SuggestionLimiter struct {
	mu      sync.Mutex
	entries map[int64]*limiterEntry
	config  *config.Store
	now     func() time.Time
}

func NewSuggestionLimiter(cfg *config.Store) *SuggestionLimiter {
	return &SuggestionLimiter{
		entries: make(map[int64]*limiterEntry),
		config:  cfg,
		now:     time.Now,
	}
}

func (sl *SuggestionLimiter) maxFor(isPremium bool) int {
	limits := sl.config.Get().Suggestions
	if isPremium {
		return limits.PremiumMaxDailySuggestions
	}
	return limits.MaxDailySuggestions
}

// entry returns the user's counter, resetting it when the refresh interval
// has elapsed. Caller holds the mutex.
func (sl *SuggestionLimiter) entry(userID int64, now time.Time) *limiterEntry {
	interval := time.Duration(sl.config.Get().Suggestions.RefreshIntervalHours) * time.Hour
	e, ok := sl.entries[userID]
	if !ok {
		e = &limiterEntry{lastResetDate: now}
		sl.entries[userID] = e
		return e
	}
	if now.Sub(e.lastResetDate) >= interval {
		e.shownToday = 0
		e.lastResetDate = now
	}
	return e
}

// CheckAndIncrement consumes one suggestion from the user's budget if any
// remains.
func (sl *SuggestionLimiter) CheckAndIncrement(userID int64, isPremium bool) (allowed bool, remaining int) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	max := sl.maxFor(isPremium)
	e := sl.entry(userID, sl.now())
	if e.shownToday >= max {
		return false, 0
	}
	e.shownToday++
	return true, max - e.shownToday
}

// Status reports the user's budget without consuming from it.
func (sl *SuggestionLimiter) Status(userID int64, isPremium bool) models.SuggestionStatus {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	max := sl.maxFor(isPremium)
	interval := time.Duration(sl.config.Get().Suggestions.RefreshIntervalHours) * time.Hour
	e := sl.entry(userID, sl.now())

	remaining := max - e.shownToday
	if remaining < 0 {
		remaining = 0
	}
	return models.SuggestionStatus{
		ShownToday:     e.shownToday,
		Max:            max,
		Remaining:      remaining,
		LastResetDate:  e.lastResetDate,
		NextResetDate:  e.lastResetDate.Add(interval),
		QueueExhausted: remaining == 0,
	}
}
