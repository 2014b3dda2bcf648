package models

import (
	"time"
)

// CandidateRequest carries the clamped query options of a candidate fetch.
type CandidateRequest struct {
	Limit            int     `json:"limit"`
	MinScore         float64 `json:"min_score"`
	ActiveWithinDays int     `json:"active_within_days"`
	OnlyVerified     bool    `json:"only_verified"`
	Strategy         string  `json:"strategy,omitempty"`
}

// Candidate is one ranked entry of a strategy result.
type Candidate struct {
	UserID             int64    `json:"user_id"`
	Age                int      `json:"age"`
	Gender             string   `json:"gender"`
	City               string   `json:"city"`
	Compatibility      float64  `json:"compatibility"`       // final ranking score
	CompatibilityScore float64  `json:"compatibility_score"` // compat sub-score before blending
	ActivityScore      float64  `json:"activity_score"`
	DesirabilityScore  float64  `json:"desirability_score"`
	StrategyUsed       string   `json:"strategy_used"`
	IsVerified         bool     `json:"is_verified"`
	Interests          []string `json:"interests"`
}

// StrategyResult is the uniform contract every candidate strategy returns.
type StrategyResult struct {
	Candidates           []Candidate   `json:"candidates"`
	TotalFiltered        int           `json:"total_filtered"`
	TotalScored          int           `json:"total_scored"`
	StrategyName         string        `json:"strategy_name"`
	Elapsed              time.Duration `json:"elapsed"`
	QueueExhausted       bool          `json:"queue_exhausted"`
	SuggestionsRemaining int           `json:"suggestions_remaining"`
}

// FilterTrace records one filter's participation in a pipeline run.
type FilterTrace struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Order int    `json:"order"`
}

type CandidateResponse struct {
	UserID       int64         `json:"user_id"`
	Candidates   []Candidate   `json:"candidates"`
	StrategyUsed string        `json:"strategy_used"`
	FilterTrace  []FilterTrace `json:"filter_trace,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

type ActivityPingRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

type ActivityPingBatchRequest struct {
	UserIDs []int64 `json:"user_ids" binding:"required"`
}

type ActivityPingBatchResponse struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// SuggestionStatus is the daily-suggestion limiter's status payload.
type SuggestionStatus struct {
	ShownToday     int       `json:"shown_today"`
	Max            int       `json:"max"`
	Remaining      int       `json:"remaining"`
	LastResetDate  time.Time `json:"last_reset_date"`
	NextResetDate  time.Time `json:"next_reset_date"`
	QueueExhausted bool      `json:"queue_exhausted"`
}

// SwipeEvent is the payload consumed from the swipe-events topic.
type SwipeEvent struct {
	UserID       int64     `json:"user_id"`
	TargetUserID int64     `json:"target_user_id"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
}

// MatchCreatedEvent is published for notification fan-out when a mutual
// match is recorded.
type MatchCreatedEvent struct {
	User1ID            int64     `json:"user1_id"`
	User2ID            int64     `json:"user2_id"`
	CompatibilityScore float64   `json:"compatibility_score"`
	Source             string    `json:"source"`
	CreatedAt          time.Time `json:"created_at"`
}

// TrustScore is the swipe service's per-user trust signal in [0,100].
type TrustScore struct {
	UserID     int64   `json:"userId"`
	TrustScore float64 `json:"trustScore"`
}
