package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/kindlr/kindlr/pkg/models"
)

// UpsertMatch records a mutual match under the canonical pair ordering.
// An existing active pair is a no-op; an unmatched pair is reactivated.
// Returns the stored row and whether it was newly created.
func (s *Store) UpsertMatch(ctx context.Context, m *models.Match) (*models.Match, bool, error) {
	m.Canonicalize()

	query := `
		INSERT INTO matches (user1_id, user2_id, compatibility_score, match_source, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (user1_id, user2_id) DO UPDATE SET
			is_active = true,
			unmatched_at = NULL,
			unmatched_by_user_id = NULL,
			unmatch_reason = NULL
		RETURNING id, user1_id, user2_id, compatibility_score, match_source, is_active,
			unmatched_at, unmatched_by_user_id, unmatch_reason, created_at,
			(xmax = 0) AS inserted`

	var out models.Match
	var inserted bool
	err := s.db.QueryRow(ctx, query, m.User1ID, m.User2ID, m.CompatibilityScore, m.MatchSource).Scan(
		&out.ID, &out.User1ID, &out.User2ID, &out.CompatibilityScore, &out.MatchSource,
		&out.IsActive, &out.UnmatchedAt, &out.UnmatchedByUserID, &out.UnmatchReason,
		&out.CreatedAt, &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert match %d/%d: %w", m.User1ID, m.User2ID, err)
	}
	return &out, inserted, nil
}

// Unmatch deactivates an active match, recording who ended it and why.
func (s *Store) Unmatch(ctx context.Context, user1ID, user2ID, byUserID int64, reason string) (bool, error) {
	if user1ID > user2ID {
		user1ID, user2ID = user2ID, user1ID
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE matches
		SET is_active = false, unmatched_at = NOW(), unmatched_by_user_id = $3, unmatch_reason = $4
		WHERE user1_id = $1 AND user2_id = $2 AND is_active = true`,
		user1ID, user2ID, byUserID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetMatchStats aggregates a user's match history. Top reasons come from
// the dominant sub-score of each active match's stored breakdown.
func (s *Store) GetMatchStats(ctx context.Context, userID int64) (*models.MatchStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user1_id, user2_id, compatibility_score, is_active, created_at
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for user %d: %w", userID, err)
	}
	defer rows.Close()

	stats := &models.MatchStats{TopReasons: []string{}}
	var scores []float64
	var partners []int64
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.User1ID, &m.User2ID, &m.CompatibilityScore, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		stats.TotalMatches++
		if m.IsActive {
			stats.ActiveMatches++
			partner := m.User1ID
			if partner == userID {
				partner = m.User2ID
			}
			partners = append(partners, partner)
		}
		scores = append(scores, m.CompatibilityScore)
		if stats.LastMatchAt == nil {
			t := m.CreatedAt
			stats.LastMatchAt = &t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(scores) > 0 {
		stats.AverageCompatibilityScore = stat.Mean(scores, nil)
	}

	reasons, err := s.topMatchReasons(ctx, userID, partners)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Top match reasons unavailable")
		return stats, nil
	}
	stats.TopReasons = reasons
	return stats, nil
}

// topMatchReasons counts which sub-score dominated each active match.
func (s *Store) topMatchReasons(ctx context.Context, userID int64, partnerIDs []int64) ([]string, error) {
	if len(partnerIDs) == 0 {
		return []string{}, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT location_score, age_score, interests_score, education_score, lifestyle_score
		FROM precomputed_scores
		WHERE user_id = $1 AND target_user_id = ANY($2) AND is_valid = true`,
		userID, partnerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var location, age, interests, education, lifestyle float64
		if err := rows.Scan(&location, &age, &interests, &education, &lifestyle); err != nil {
			return nil, err
		}

		best, reason := location, "location"
		for _, sub := range []struct {
			score  float64
			reason string
		}{
			{age, "age"},
			{interests, "shared_interests"},
			{education, "education"},
			{lifestyle, "lifestyle"},
		} {
			if sub.score > best {
				best, reason = sub.score, sub.reason
			}
		}
		counts[reason]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return reasons, nil
}

// DeleteMatchesForUser removes every match row where the user appears on
// either side. Backs the internal removal endpoint and the account-deletion
// cascade; user-initiated unmatches stay soft via Unmatch.
func (s *Store) DeleteMatchesForUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM matches WHERE user1_id = $1 OR user2_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches for user %d: %w", userID, err)
	}
	return tag.RowsAffected(), nil
}
