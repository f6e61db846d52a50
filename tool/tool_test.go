package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionTool(t *testing.T) {
	sum := NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)

	t.Run("valid arguments", func(t *testing.T) {
		result, err := sum.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
		require.NoError(t, err)
		assert.Equal(t, 5.0, result)
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := sum.Call(context.Background(), map[string]any{"a": 2.0})

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	})

	t.Run("wrong argument type", func(t *testing.T) {
		_, err := sum.Call(context.Background(), map[string]any{"a": "two", "b": 3.0})

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	})

	t.Run("execution error is wrapped", func(t *testing.T) {
		failing := NewFunctionTool("boom", "always fails", map[string]any{"type": "object", "properties": map[string]any{}},
			func(ctx context.Context, args map[string]any) (any, error) {
				return nil, errors.New("kaput")
			},
		)

		_, err := failing.Call(context.Background(), map[string]any{})

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
		assert.Equal(t, "kaput", toolErr.Message)
	})

	t.Run("tool error passes through unchanged", func(t *testing.T) {
		custom := NewFunctionTool("custom", "custom code", map[string]any{"type": "object", "properties": map[string]any{}},
			func(ctx context.Context, args map[string]any) (any, error) {
				return nil, NewToolError("custom", "nope", "NOT_FOUND")
			},
		)

		_, err := custom.Call(context.Background(), map[string]any{})

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "NOT_FOUND", toolErr.Code)
	})
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	type echoArgs struct {
		Text string `json:"text" description:"Text to echo"`
		N    int    `json:"n,omitempty"`
	}

	echo := NewFunctionToolFromStruct("echo", "Echo the input", echoArgs{},
		func(ctx context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)

	schema := echo.Parameters()
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "text")
	assert.Contains(t, props, "n")
	assert.Equal(t, []string{"text"}, schema["required"])

	result, err := echo.Call(context.Background(), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestDefinitions(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo", map[string]any{"type": "object", "properties": map[string]any{}},
		func(ctx context.Context, args map[string]any) (any, error) { return nil, nil },
	)

	defs := Definitions([]Tool{echo})
	require.Len(t, defs, 1)
	assert.Equal(t, "function", defs[0].Type)
	assert.Equal(t, "echo", defs[0].Function.Name)
}
