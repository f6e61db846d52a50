package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"count": map[string]any{"type": "integer"},
		},
		"required": []string{"name"},
	}

	t.Run("valid", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": "a", "count": float64(3)}, schema)
		assert.NoError(t, err)
	})

	t.Run("missing required", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"count": float64(3)}, schema)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	})

	t.Run("required as decoded json array", func(t *testing.T) {
		decoded := map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
			"required": []any{"name"},
		}

		err := ValidateParameters(map[string]any{}, decoded)
		assert.Error(t, err)
	})

	t.Run("non integer rejected for integer type", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": "a", "count": 3.5}, schema)
		assert.Error(t, err)
	})

	t.Run("extra fields allowed", func(t *testing.T) {
		err := ValidateParameters(map[string]any{"name": "a", "extra": true}, schema)
		assert.NoError(t, err)
	})

	t.Run("nil params with no required fields", func(t *testing.T) {
		err := ValidateParameters(nil, map[string]any{"type": "object", "properties": map[string]any{}})
		assert.NoError(t, err)
	})
}

func TestCreateSchema(t *testing.T) {
	type args struct {
		Query string `json:"query" description:"Search query"`
		Limit int    `json:"limit,omitempty"`
	}

	schema := CreateSchema(args{})

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")

	query, ok := props["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Search query", query["description"])

	required, ok := schema["required"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"query"}, required)
}
