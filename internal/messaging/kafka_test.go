package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestSwipeEventSchema(t *testing.T) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(swipeEventSchema))
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload string
		valid   bool
	}{
		{
			"complete like event",
			`{"user_id": 1, "target_user_id": 2, "type": "LIKE", "timestamp": "2026-01-01T00:00:00Z"}`,
			true,
		},
		{
			"pass without timestamp",
			`{"user_id": 1, "target_user_id": 2, "type": "PASS"}`,
			true,
		},
		{
			"missing target",
			`{"user_id": 1, "type": "LIKE"}`,
			false,
		},
		{
			"unknown swipe type",
			`{"user_id": 1, "target_user_id": 2, "type": "SUPERLIKE"}`,
			false,
		},
		{
			"non-positive user id",
			`{"user_id": 0, "target_user_id": 2, "type": "LIKE"}`,
			false,
		},
		{
			"string ids are rejected",
			`{"user_id": "1", "target_user_id": 2, "type": "LIKE"}`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.Validate(gojsonschema.NewStringLoader(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid())
		})
	}
}
