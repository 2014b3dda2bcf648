package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateQuery_SQL(t *testing.T) {
	t.Run("no conditions", func(t *testing.T) {
		sql, args := NewCandidateQuery().SQL()

		assert.True(t, strings.HasPrefix(sql, "SELECT "))
		assert.Contains(t, sql, "FROM profiles p")
		assert.NotContains(t, sql, "WHERE")
		assert.Contains(t, sql, "ORDER BY p.user_id")
		assert.Empty(t, args)
	})

	t.Run("placeholders are renumbered in order", func(t *testing.T) {
		sql, args := NewCandidateQuery().
			Where("p.user_id <> ?", int64(7)).
			Where("p.age BETWEEN ? AND ?", 25, 35).
			Limit(20).
			SQL()

		assert.Contains(t, sql, "p.user_id <> $1")
		assert.Contains(t, sql, "p.age BETWEEN $2 AND $3")
		assert.Contains(t, sql, "LIMIT $4")
		assert.Equal(t, []interface{}{int64(7), 25, 35, 20}, args)
	})

	t.Run("conditions are joined with AND", func(t *testing.T) {
		sql, _ := NewCandidateQuery().
			Where("p.is_active = true").
			Where("p.gender = ?", "F").
			SQL()

		assert.Contains(t, sql, "p.is_active = true AND p.gender = $1")
	})

	t.Run("no limit means no LIMIT clause", func(t *testing.T) {
		sql, args := NewCandidateQuery().Where("p.is_active = true").SQL()

		assert.NotContains(t, sql, "LIMIT")
		assert.Empty(t, args)
	})

	t.Run("order by comes before limit", func(t *testing.T) {
		sql, _ := NewCandidateQuery().Limit(5).SQL()

		orderIdx := strings.Index(sql, "ORDER BY p.user_id")
		limitIdx := strings.Index(sql, "LIMIT $1")
		assert.Greater(t, limitIdx, orderIdx)
	})
}
