package models

import (
	"time"
)

// Smoking/drinking frequency ordinals. Order matters: scoring penalties
// scale with the ordinal distance between two profiles.
const (
	FrequencyNever     = "Never"
	FrequencySometimes = "Sometimes"
	FrequencyOften     = "Often"
)

// PreferredGender values treated as "open to everyone".
var EveryoneSynonyms = map[string]bool{
	"Everyone": true,
	"All":      true,
	"Any":      true,
	"":         true,
}

type Profile struct {
	ID                int64        `json:"id" db:"id"`
	UserID            int64        `json:"user_id" db:"user_id"`
	Gender            string       `json:"gender" db:"gender"`
	Age               int          `json:"age" db:"age"`
	Latitude          float64      `json:"latitude" db:"latitude"`
	Longitude         float64      `json:"longitude" db:"longitude"`
	City              string       `json:"city" db:"city"`
	Country           string       `json:"country" db:"country"`
	PreferredGender   string       `json:"preferred_gender" db:"preferred_gender"`
	MinAge            int          `json:"min_age" db:"min_age"`
	MaxAge            int          `json:"max_age" db:"max_age"`
	MaxDistanceKm     float64      `json:"max_distance_km" db:"max_distance_km"`
	LookingFor        string       `json:"looking_for" db:"looking_for"`
	WantsChildren     bool         `json:"wants_children" db:"wants_children"`
	HasChildren       bool         `json:"has_children" db:"has_children"`
	SmokingStatus     string       `json:"smoking_status" db:"smoking_status"`
	DrinkingStatus    string       `json:"drinking_status" db:"drinking_status"`
	Religion          string       `json:"religion" db:"religion"`
	EducationLevel    string       `json:"education_level" db:"education_level"`
	Interests         []string     `json:"interests" db:"interests"`
	Weights           ScoreWeights `json:"weights"`
	IsActive          bool         `json:"is_active" db:"is_active"`
	IsVerified        bool         `json:"is_verified" db:"is_verified"`
	DesirabilityScore float64      `json:"desirability_score" db:"desirability_score"`
	LastActiveAt      time.Time    `json:"last_active_at" db:"last_active_at"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// ScoreWeights are the per-user factor weights applied by the
// compatibility scorer. All non-negative.
type ScoreWeights struct {
	Location  float64 `json:"location" db:"location_weight"`
	Age       float64 `json:"age" db:"age_weight"`
	Interests float64 `json:"interests" db:"interests_weight"`
	Education float64 `json:"education" db:"education_weight"`
	Lifestyle float64 `json:"lifestyle" db:"lifestyle_weight"`
}

// DefaultScoreWeights mirror the configured default weights for profiles
// that never customized theirs.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Location:  1.0,
		Age:       1.0,
		Interests: 1.0,
		Education: 0.5,
		Lifestyle: 1.0,
	}
}

func (p *Profile) WantsEveryone() bool {
	return EveryoneSynonyms[p.PreferredGender]
}
