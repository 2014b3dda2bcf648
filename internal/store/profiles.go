package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kindlr/kindlr/pkg/models"
)

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Gender, &p.Age, &p.Latitude, &p.Longitude, &p.City, &p.Country,
		&p.PreferredGender, &p.MinAge, &p.MaxAge, &p.MaxDistanceKm, &p.LookingFor,
		&p.WantsChildren, &p.HasChildren, &p.SmokingStatus, &p.DrinkingStatus, &p.Religion,
		&p.EducationLevel, &p.Interests,
		&p.Weights.Location, &p.Weights.Age, &p.Weights.Interests, &p.Weights.Education, &p.Weights.Lifestyle,
		&p.IsActive, &p.IsVerified, &p.DesirabilityScore, &p.LastActiveAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the profile for userID, or pgx.ErrNoRows.
func (s *Store) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles p
		WHERE p.user_id = $1`

	return scanProfile(s.db.QueryRow(ctx, query, userID))
}

// FindCandidates materializes a composed candidate query in one statement.
func (s *Store) FindCandidates(ctx context.Context, q *CandidateQuery) ([]*models.Profile, error) {
	sql, args := q.SQL()

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// CountActiveProfiles feeds the strategy resolver's population check.
func (s *Store) CountActiveProfiles(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE is_active = true`).Scan(&count)
	return count, err
}

// ListActiveUserIDs enumerates active users for the daily-pick generator.
func (s *Store) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id FROM profiles WHERE is_active = true ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
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

// TouchLastActive updates lastActiveAt for an existing profile. Unknown
// users are ignored; the bool reports whether a row changed.
func (s *Store) TouchLastActive(ctx context.Context, userID int64, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE profiles SET last_active_at = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// TouchLastActiveBatch applies a batch of activity pings in one transaction
// and reports how many known users were updated.
func (s *Store) TouchLastActiveBatch(ctx context.Context, userIDs []int64, at time.Time) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	updated := 0
	for _, id := range userIDs {
		tag, err := tx.Exec(ctx,
			`UPDATE profiles SET last_active_at = $2, updated_at = NOW() WHERE user_id = $1`,
			id, at)
		if err != nil {
			return 0, err
		}
		updated += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return updated, nil
}

// UpdateDesirability persists a recalculated desirability score.
func (s *Store) UpdateDesirability(ctx context.Context, userID int64, score float64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE profiles SET desirability_score = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, score)
	return err
}

// DeactivateProfile soft-deletes a profile. Matches are cascaded by the
// caller through DeleteMatchesForUser.
func (s *Store) DeactivateProfile(ctx context.Context, userID int64) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE profiles SET is_active = false, updated_at = NOW() WHERE user_id = $1`,
		userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
