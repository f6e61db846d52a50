package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
)

func TestMockModel(t *testing.T) {
	t.Run("canned response lookup", func(t *testing.T) {
		m := NewMockModel("test")
		m.AddResponse("What is 2+2?", "4")

		resp, err := m.Invoke(context.Background(), Request{
			Messages: []core.Message{core.NewUserMessage("What is 2+2?")},
		})
		require.NoError(t, err)
		assert.Equal(t, "4", resp.Content)
		require.NotNil(t, resp.Usage)
	})

	t.Run("scripted responses consumed in order", func(t *testing.T) {
		m := NewMockModel("test")
		m.Enqueue(
			ScriptedResponse{ToolCalls: []core.ToolCall{{ID: "call-1", Name: "echo", Arguments: `{"text":"hi"}`}}},
			ScriptedResponse{Content: "all done"},
		)

		first, err := m.Invoke(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("go")}})
		require.NoError(t, err)
		assert.Equal(t, "tool_calls", first.FinishReason)
		require.Len(t, first.ToolCalls, 1)

		second, err := m.Invoke(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("go")}})
		require.NoError(t, err)
		assert.Equal(t, "all done", second.Content)
		assert.Empty(t, second.ToolCalls)
	})

	t.Run("fail first invocations", func(t *testing.T) {
		m := NewMockModel("test")
		m.FailFirst = 2

		_, err := m.Invoke(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("hi")}})
		require.Error(t, err)

		_, err = m.Invoke(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("hi")}})
		require.Error(t, err)

		_, err = m.Invoke(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("hi")}})
		assert.NoError(t, err)
		assert.Len(t, m.Invocations, 3)
	})

	t.Run("persistent error", func(t *testing.T) {
		m := NewMockModel("test")
		m.SetError(errors.New("boom"))

		_, err := m.Invoke(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("hi")}})
		assert.EqualError(t, err, "boom")
	})
}

func TestBind(t *testing.T) {
	tools := []ToolDefinition{{
		Type:     "function",
		Function: FunctionDefinition{Name: "echo", Description: "echoes"},
	}}

	m := NewMockModel("test")
	bound := Bind(m, tools)

	_, err := bound.Invoke(context.Background(), Request{Messages: []core.Message{core.NewUserMessage("hi")}})
	require.NoError(t, err)

	require.Len(t, m.Invocations, 1)
	require.Len(t, m.Invocations[0].Tools, 1)
	assert.Equal(t, "echo", m.Invocations[0].Tools[0].Function.Name)

	// Request-level tools win over the bound set.
	override := []ToolDefinition{{Function: FunctionDefinition{Name: "other"}}}
	_, err = bound.Invoke(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
		Tools:    override,
	})
	require.NoError(t, err)
	assert.Equal(t, "other", m.Invocations[1].Tools[0].Function.Name)

	assert.Equal(t, "mock", bound.Info().Provider)
}

func TestResponseMessage(t *testing.T) {
	resp := &Response{
		Content:   "working on it",
		ToolCalls: []core.ToolCall{{ID: "call-1", Name: "echo"}},
		Usage:     &core.TokenUsage{InputTokens: 5, OutputTokens: 3, TotalTokens: 8},
	}

	msg := resp.Message()
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.True(t, msg.HasToolCalls())
	require.NotNil(t, msg.Usage)
	assert.Equal(t, 8, msg.Usage.TotalTokens)
	assert.NotEmpty(t, msg.ID)
}
