package models

import (
	"time"
)

// PrecomputedScore is a directional (user -> target) score row maintained
// by the background refresher and the scorer's write-through cache.
// Readers must ignore rows with IsValid = false.
type PrecomputedScore struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	TargetUserID   int64     `json:"target_user_id" db:"target_user_id"`
	OverallScore   float64   `json:"overall_score" db:"overall_score"`
	LocationScore  float64   `json:"location_score" db:"location_score"`
	AgeScore       float64   `json:"age_score" db:"age_score"`
	InterestsScore float64   `json:"interests_score" db:"interests_score"`
	EducationScore float64   `json:"education_score" db:"education_score"`
	LifestyleScore float64   `json:"lifestyle_score" db:"lifestyle_score"`
	ActivityScore  float64   `json:"activity_score" db:"activity_score"`
	CalculatedAt   time.Time `json:"calculated_at" db:"calculated_at"`
	IsValid        bool      `json:"is_valid" db:"is_valid"`
}

// CompatibilityBreakdown carries the sub-scores of one scorer run.
// All values are in [0, 100].
type CompatibilityBreakdown struct {
	Overall   float64 `json:"overall"`
	Location  float64 `json:"location"`
	Age       float64 `json:"age"`
	Interests float64 `json:"interests"`
	Education float64 `json:"education"`
	Lifestyle float64 `json:"lifestyle"`
	Activity  float64 `json:"activity"`
}

// DailyPick is one curated candidate in a user's daily batch.
type DailyPick struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	CandidateUserID int64     `json:"candidate_user_id" db:"candidate_user_id"`
	Score           float64   `json:"score" db:"score"`
	Rank            int       `json:"rank" db:"rank"`
	GeneratedAt     time.Time `json:"generated_at" db:"generated_at"`
	ExpiresAt       time.Time `json:"expires_at" db:"expires_at"`
	Seen            bool      `json:"seen" db:"seen"`
	Acted           bool      `json:"acted" db:"acted"`
}

// UserInteraction is an append-only swipe record. The engine stores these
// for desirability and health metrics only; candidate exclusion uses the
// swipe service's id list instead.
type UserInteraction struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	TargetUserID int64     `json:"target_user_id" db:"target_user_id"`
	Type         string    `json:"type" db:"interaction_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

const (
	InteractionLike = "LIKE"
	InteractionPass = "PASS"
)

// AlgorithmMetric is a periodic per-user rollup consumed by the
// desirability calculator.
type AlgorithmMetric struct {
	ID                   int64     `json:"id" db:"id"`
	UserID               int64     `json:"user_id" db:"user_id"`
	SwipesReceived       int       `json:"swipes_received" db:"swipes_received"`
	LikesReceived        int       `json:"likes_received" db:"likes_received"`
	MatchesCreated       int       `json:"matches_created" db:"matches_created"`
	SuggestionsGenerated int       `json:"suggestions_generated" db:"suggestions_generated"`
	SuccessRate          float64   `json:"success_rate" db:"success_rate"`
	CalculatedAt         time.Time `json:"calculated_at" db:"calculated_at"`
}
