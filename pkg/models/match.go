package models

import (
	"time"
)

// Match is a mutually-accepted pair. The pair is canonical: User1ID <
// User2ID always holds in storage.
type Match struct {
	ID                 int64      `json:"id" db:"id"`
	User1ID            int64      `json:"user1_id" db:"user1_id"`
	User2ID            int64      `json:"user2_id" db:"user2_id"`
	CompatibilityScore float64    `json:"compatibility_score" db:"compatibility_score"`
	MatchSource        string     `json:"match_source" db:"match_source"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	UnmatchedAt        *time.Time `json:"unmatched_at,omitempty" db:"unmatched_at"`
	UnmatchedByUserID  *int64     `json:"unmatched_by_user_id,omitempty" db:"unmatched_by_user_id"`
	UnmatchReason      *string    `json:"unmatch_reason,omitempty" db:"unmatch_reason"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// Canonicalize orders the pair so User1ID < User2ID.
func (m *Match) Canonicalize() {
	if m.User1ID > m.User2ID {
		m.User1ID, m.User2ID = m.User2ID, m.User1ID
	}
}

type MutualMatchRequest struct {
	User1ID            int64    `json:"user1_id" binding:"required"`
	User2ID            int64    `json:"user2_id" binding:"required"`
	CompatibilityScore *float64 `json:"compatibility_score,omitempty"`
	Source             string   `json:"source" binding:"omitempty,matchsource"`
}

type MatchStats struct {
	TotalMatches              int        `json:"total_matches"`
	ActiveMatches             int        `json:"active_matches"`
	AverageCompatibilityScore float64    `json:"average_compatibility_score"`
	LastMatchAt               *time.Time `json:"last_match_at,omitempty"`
	TopReasons                []string   `json:"top_reasons"`
}
