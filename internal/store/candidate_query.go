package store

import (
	"fmt"
	"strings"
)

// CandidateQuery composes the single SELECT a filter pipeline run turns
// into. Filters only append parameterized WHERE fragments; nothing is
// materialized until the store executes the finished query, so every
// predicate stays on the database side.
//
// Fragments use `?` placeholders; they are rewritten to the positional
// `$n` form when the statement is rendered.
type CandidateQuery struct {
	conds []string
	args  []interface{}
	limit int
}

func NewCandidateQuery() *CandidateQuery {
	return &CandidateQuery{}
}

// Where appends a predicate fragment. The fragment must contain one `?`
// per argument.
func (q *CandidateQuery) Where(frag string, args ...interface{}) *CandidateQuery {
	q.conds = append(q.conds, frag)
	q.args = append(q.args, args...)
	return q
}

// Limit sets the truncating limit applied at materialization.
func (q *CandidateQuery) Limit(n int) *CandidateQuery {
	q.limit = n
	return q
}

const profileColumns = `p.id, p.user_id, p.gender, p.age, p.latitude, p.longitude, p.city, p.country,
		p.preferred_gender, p.min_age, p.max_age, p.max_distance_km, p.looking_for,
		p.wants_children, p.has_children, p.smoking_status, p.drinking_status, p.religion,
		p.education_level, p.interests,
		p.location_weight, p.age_weight, p.interests_weight, p.education_weight, p.lifestyle_weight,
		p.is_active, p.is_verified, p.desirability_score, p.last_active_at, p.created_at, p.updated_at`

// SQL renders the statement and its positional arguments. Scan order is
// store ordering by user id, which makes ranked output deterministic on
// score ties.
func (q *CandidateQuery) SQL() (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(profileColumns)
	b.WriteString("\n\tFROM profiles p")

	args := make([]interface{}, 0, len(q.args)+1)
	argn := 0
	if len(q.conds) > 0 {
		b.WriteString("\n\tWHERE ")
		for i, cond := range q.conds {
			if i > 0 {
				b.WriteString(" AND ")
			}
			for _, r := range cond {
				if r == '?' {
					argn++
					fmt.Fprintf(&b, "$%d", argn)
				} else {
					b.WriteRune(r)
				}
			}
		}
		args = append(args, q.args...)
	}

	b.WriteString("\n\tORDER BY p.user_id")
	if q.limit > 0 {
		argn++
		fmt.Fprintf(&b, " LIMIT $%d", argn)
		args = append(args, q.limit)
	}

	return b.String(), args
}
