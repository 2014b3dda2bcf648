package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kindlr/kindlr/pkg/models"
)

// DeleteExpiredPicks clears picks past their expiry across all users.
// Runs at the start of every generation cycle.
func (s *Store) DeleteExpiredPicks(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM daily_picks WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired picks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReplacePicks swaps a user's batch in one transaction: previous unacted
// picks go away, the new ranked batch comes in.
func (s *Store) ReplacePicks(ctx context.Context, userID int64, picks []*models.DailyPick) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM daily_picks WHERE user_id = $1 AND acted = false`, userID); err != nil {
		return fmt.Errorf("failed to clear picks for user %d: %w", userID, err)
	}

	for _, p := range picks {
		_, err := tx.Exec(ctx, `
			INSERT INTO daily_picks (user_id, candidate_user_id, score, rank, generated_at, expires_at, seen, acted)
			VALUES ($1, $2, $3, $4, $5, $6, false, false)`,
			p.UserID, p.CandidateUserID, p.Score, p.Rank, p.GeneratedAt, p.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to insert pick for user %d: %w", userID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetServablePicks returns the user's unexpired, unacted picks in rank
// order. Seen picks are still served until acted on.
func (s *Store) GetServablePicks(ctx context.Context, userID int64, now time.Time, limit int) ([]*models.DailyPick, error) {
	query := `
		SELECT id, user_id, candidate_user_id, score, rank, generated_at, expires_at, seen, acted
		FROM daily_picks
		WHERE user_id = $1 AND acted = false AND expires_at > $2
		ORDER BY rank ASC
		LIMIT $3`

	rows, err := s.db.Query(ctx, query, userID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load picks for user %d: %w", userID, err)
	}
	defer rows.Close()

	var picks []*models.DailyPick
	for rows.Next() {
		var p models.DailyPick
		if err := rows.Scan(&p.ID, &p.UserID, &p.CandidateUserID, &p.Score, &p.Rank,
			&p.GeneratedAt, &p.ExpiresAt, &p.Seen, &p.Acted); err != nil {
			return nil, err
		}
		picks = append(picks, &p)
	}
	return picks, rows.Err()
}

// CountUnseenPicks counts the user's servable picks that have never been
// shown, independent of any serving limit.
func (s *Store) CountUnseenPicks(ctx context.Context, userID int64, now time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_picks WHERE user_id = $1 AND acted = false AND seen = false AND expires_at > $2`,
		userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unseen picks for user %d: %w", userID, err)
	}
	return count, nil
}

// MarkPicksSeen flags the given pick rows as served.
func (s *Store) MarkPicksSeen(ctx context.Context, pickIDs []int64) error {
	if len(pickIDs) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`UPDATE daily_picks SET seen = true WHERE id = ANY($1)`, pickIDs)
	return err
}

// MarkPickActed records that the user swiped on a pick.
func (s *Store) MarkPickActed(ctx context.Context, userID, candidateID int64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE daily_picks SET acted = true WHERE user_id = $1 AND candidate_user_id = $2`,
		userID, candidateID)
	return err
}

// HasFreshPicks reports whether the user already received a batch generated
// at or after the given cutoff. A generator restarted mid-cycle uses this to
// skip users it covered before the interruption.
func (s *Store) HasFreshPicks(ctx context.Context, userID int64, since time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_picks WHERE user_id = $1 AND generated_at >= $2`,
		userID, since).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeletePicksForUser removes all pick rows where the user appears as owner
// or candidate. Used by the hard-delete endpoint.
func (s *Store) DeletePicksForUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM daily_picks WHERE user_id = $1 OR candidate_user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
