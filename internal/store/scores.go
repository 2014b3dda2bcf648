package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kindlr/kindlr/pkg/models"
)

// UpsertScore writes a directional score row, replacing any prior row for
// the same (user, target) pair and marking it valid again.
func (s *Store) UpsertScore(ctx context.Context, sc *models.PrecomputedScore) error {
	query := `
		INSERT INTO precomputed_scores (
			user_id, target_user_id, overall_score, location_score, age_score,
			interests_score, education_score, lifestyle_score, activity_score,
			calculated_at, is_valid
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true)
		ON CONFLICT (user_id, target_user_id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			location_score = EXCLUDED.location_score,
			age_score = EXCLUDED.age_score,
			interests_score = EXCLUDED.interests_score,
			education_score = EXCLUDED.education_score,
			lifestyle_score = EXCLUDED.lifestyle_score,
			activity_score = EXCLUDED.activity_score,
			calculated_at = EXCLUDED.calculated_at,
			is_valid = true`

	_, err := s.db.Exec(ctx, query,
		sc.UserID, sc.TargetUserID, sc.OverallScore, sc.LocationScore, sc.AgeScore,
		sc.InterestsScore, sc.EducationScore, sc.LifestyleScore, sc.ActivityScore,
		sc.CalculatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert score %d->%d: %w", sc.UserID, sc.TargetUserID, err)
	}
	return nil
}

// GetFreshScore returns a valid cached score no older than ttl, or nil when
// the pair must be recomputed.
func (s *Store) GetFreshScore(ctx context.Context, userID, targetID int64, ttl time.Duration) (*models.PrecomputedScore, error) {
	query := `
		SELECT id, user_id, target_user_id, overall_score, location_score, age_score,
			interests_score, education_score, lifestyle_score, activity_score,
			calculated_at, is_valid
		FROM precomputed_scores
		WHERE user_id = $1 AND target_user_id = $2
			AND is_valid = true
			AND calculated_at > $3`

	var sc models.PrecomputedScore
	err := s.db.QueryRow(ctx, query, userID, targetID, time.Now().Add(-ttl)).Scan(
		&sc.ID, &sc.UserID, &sc.TargetUserID, &sc.OverallScore, &sc.LocationScore,
		&sc.AgeScore, &sc.InterestsScore, &sc.EducationScore, &sc.LifestyleScore,
		&sc.ActivityScore, &sc.CalculatedAt, &sc.IsValid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListTopScores returns the user's valid precomputed scores ordered best
// first, ties broken by target id. Rows older than maxAge are treated as
// absent so an idle refresher cannot keep serving a stale ranking.
func (s *Store) ListTopScores(ctx context.Context, userID int64, limit int, maxAge time.Duration) ([]*models.PrecomputedScore, error) {
	query := `
		SELECT id, user_id, target_user_id, overall_score, location_score, age_score,
			interests_score, education_score, lifestyle_score, activity_score,
			calculated_at, is_valid
		FROM precomputed_scores
		WHERE user_id = $1 AND is_valid = true
			AND calculated_at > $2
		ORDER BY overall_score DESC, target_user_id ASC
		LIMIT $3`

	rows, err := s.db.Query(ctx, query, userID, time.Now().Add(-maxAge), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores for user %d: %w", userID, err)
	}
	defer rows.Close()

	var scores []*models.PrecomputedScore
	for rows.Next() {
		var sc models.PrecomputedScore
		if err := rows.Scan(
			&sc.ID, &sc.UserID, &sc.TargetUserID, &sc.OverallScore, &sc.LocationScore,
			&sc.AgeScore, &sc.InterestsScore, &sc.EducationScore, &sc.LifestyleScore,
			&sc.ActivityScore, &sc.CalculatedAt, &sc.IsValid); err != nil {
			return nil, err
		}
		scores = append(scores, &sc)
	}
	return scores, rows.Err()
}

// InvalidateScoresInvolving marks every score row where the user appears on
// either side. Called on swipes and profile changes.
func (s *Store) InvalidateScoresInvolving(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE precomputed_scores SET is_valid = false WHERE user_id = $1 OR target_user_id = $1`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate scores for user %d: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

// refreshBatchSQL builds the staleness-first selection. The active-only
// predicate is optional so operators can opt in to refreshing dormant
// accounts; ties on staleness break deterministically by user id.
func refreshBatchSQL(onlyActive bool) string {
	var b strings.Builder
	b.WriteString(`
		SELECT p.user_id
		FROM profiles p
		LEFT JOIN (
			SELECT user_id, MIN(calculated_at) AS oldest
			FROM precomputed_scores
			WHERE is_valid = true
			GROUP BY user_id
		) ps ON ps.user_id = p.user_id`)
	if onlyActive {
		b.WriteString(`
		WHERE p.is_active = true`)
	}
	b.WriteString(`
		ORDER BY ps.oldest ASC NULLS FIRST, p.user_id ASC
		LIMIT $1`)
	return b.String()
}

// SelectRefreshBatch picks the next users the background refresher should
// score, staleness first: users with no valid scores at all sort ahead of
// users whose oldest valid score is merely old.
func (s *Store) SelectRefreshBatch(ctx context.Context, limit int, onlyActive bool) ([]int64, error) {
	rows, err := s.db.Query(ctx, refreshBatchSQL(onlyActive), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select refresh batch: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteScoresForUser removes all score rows involving a user, both
// directions. Used by the hard-delete endpoint.
func (s *Store) DeleteScoresForUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM precomputed_scores WHERE user_id = $1 OR target_user_id = $1`,
		userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
