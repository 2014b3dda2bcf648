package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kindlr/kindlr/pkg/models"
)

// InsertInteraction appends a swipe record.
func (s *Store) InsertInteraction(ctx context.Context, in *models.UserInteraction) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_interactions (user_id, target_user_id, interaction_type, created_at)
		VALUES ($1, $2, $3, $4)`,
		in.UserID, in.TargetUserID, in.Type, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}
	return nil
}

// DeleteInteractionsForUser removes swipe history where the user appears on
// either side. Part of the account-deletion cascade.
func (s *Store) DeleteInteractionsForUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM user_interactions WHERE user_id = $1 OR target_user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete interactions for user %d: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}

// GetLatestMetric returns the most recent rollup for a user, or nil.
func (s *Store) GetLatestMetric(ctx context.Context, userID int64) (*models.AlgorithmMetric, error) {
	query := `
		SELECT id, user_id, swipes_received, likes_received, matches_created,
			suggestions_generated, success_rate, calculated_at
		FROM algorithm_metrics
		WHERE user_id = $1
		ORDER BY calculated_at DESC
		LIMIT 1`

	var m models.AlgorithmMetric
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&m.ID, &m.UserID, &m.SwipesReceived, &m.LikesReceived, &m.MatchesCreated,
		&m.SuggestionsGenerated, &m.SuccessRate, &m.CalculatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RollupMetrics recomputes per-user receive-side counters from the
// interactions table and stores one metric row per active user.
func (s *Store) RollupMetrics(ctx context.Context, since, now time.Time) (int, error) {
	query := `
		INSERT INTO algorithm_metrics (
			user_id, swipes_received, likes_received, matches_created,
			suggestions_generated, success_rate, calculated_at
		)
		SELECT
			p.user_id,
			COUNT(i.id),
			COUNT(i.id) FILTER (WHERE i.interaction_type = 'LIKE'),
			(SELECT COUNT(*) FROM matches m
				WHERE (m.user1_id = p.user_id OR m.user2_id = p.user_id) AND m.created_at >= $1),
			0,
			CASE WHEN COUNT(i.id) > 0
				THEN COUNT(i.id) FILTER (WHERE i.interaction_type = 'LIKE')::float / COUNT(i.id)
				ELSE 0 END,
			$2
		FROM profiles p
		LEFT JOIN user_interactions i
			ON i.target_user_id = p.user_id AND i.created_at >= $1
		WHERE p.is_active = true
		GROUP BY p.user_id`

	tag, err := s.db.Exec(ctx, query, since, now)
	if err != nil {
		return 0, fmt.Errorf("failed to roll up metrics: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountSwipesReceived returns lifetime swipes and likes received by a user.
// Feeds the Bayesian desirability prior.
func (s *Store) CountSwipesReceived(ctx context.Context, userID int64) (swipes, likes int, err error) {
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE interaction_type = 'LIKE')
		FROM user_interactions
		WHERE target_user_id = $1`, userID).Scan(&swipes, &likes)
	return swipes, likes, err
}

// LastSwipeReceivedAt returns when the user last received a swipe, or the
// zero time if never.
func (s *Store) LastSwipeReceivedAt(ctx context.Context, userID int64) (time.Time, error) {
	var at *time.Time
	err := s.db.QueryRow(ctx,
		`SELECT MAX(created_at) FROM user_interactions WHERE target_user_id = $1`,
		userID).Scan(&at)
	if err != nil {
		return time.Time{}, err
	}
	if at == nil {
		return time.Time{}, nil
	}
	return *at, nil
}
