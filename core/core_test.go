package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/todo"
)

func TestAgentState(t *testing.T) {
	t.Run("last user message", func(t *testing.T) {
		state := NewAgentState("conv-1")
		state.AddMessage(NewUserMessage("first"))
		state.AddMessage(NewAssistantMessage("reply"))
		state.AddMessage(NewUserMessage("second"))

		last := state.LastUserMessage()
		require.NotNil(t, last)
		assert.Equal(t, "second", last.Content)
	})

	t.Run("empty history", func(t *testing.T) {
		state := NewAgentState("conv-1")
		assert.Nil(t, state.LastMessage())
		assert.Nil(t, state.LastUserMessage())
	})

	t.Run("clone diverges safely", func(t *testing.T) {
		state := NewAgentState("conv-1")
		state.AddMessage(NewUserMessage("hello"))
		state.SetFlag(FlagReplanNeeded, true)
		state.Todos = todo.NewList()
		state.Todos.Create("work")

		clone := state.Clone()
		clone.AddMessage(NewAssistantMessage("reply"))
		clone.SetFlag(FlagReplanNeeded, false)
		clone.Todos.Create("extra")

		assert.Len(t, state.Messages, 1)
		v, _ := state.Flag(FlagReplanNeeded)
		assert.Equal(t, true, v)
		assert.Equal(t, 1, state.Todos.Len())
	})
}

func TestPatchMerge(t *testing.T) {
	t.Run("deltas accumulate", func(t *testing.T) {
		a := Patch{ModelCallsDelta: 1, UsageDelta: TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}
		b := Patch{ToolCallsDelta: 2, UsageDelta: TokenUsage{InputTokens: 3, TotalTokens: 3}}

		merged := a.Merge(b)
		assert.Equal(t, 1, merged.ModelCallsDelta)
		assert.Equal(t, 2, merged.ToolCallsDelta)
		assert.Equal(t, TokenUsage{InputTokens: 13, OutputTokens: 5, TotalTokens: 18}, merged.UsageDelta)
	})

	t.Run("appends concatenate in order", func(t *testing.T) {
		a := Patch{AppendMessages: []Message{NewAssistantMessage("one")}}
		b := Patch{AppendMessages: []Message{NewAssistantMessage("two")}}

		merged := a.Merge(b)
		require.Len(t, merged.AppendMessages, 2)
		assert.Equal(t, "one", merged.AppendMessages[0].Content)
		assert.Equal(t, "two", merged.AppendMessages[1].Content)
	})

	t.Run("later writer wins on replacements and flags", func(t *testing.T) {
		early := []Message{NewAssistantMessage("early")}
		late := []Message{NewAssistantMessage("late")}

		a := Patch{SetMessages: &early, SetFlags: map[string]any{"k": 1, "only-a": true}}
		b := Patch{SetMessages: &late, SetFlags: map[string]any{"k": 2}}

		merged := a.Merge(b)
		assert.Equal(t, "late", (*merged.SetMessages)[0].Content)
		assert.Equal(t, 2, merged.SetFlags["k"])
		assert.Equal(t, true, merged.SetFlags["only-a"])
	})

	t.Run("merge does not mutate operands", func(t *testing.T) {
		a := Patch{SetFlags: map[string]any{"k": 1}}
		b := Patch{SetFlags: map[string]any{"k": 2}}

		_ = a.Merge(b)
		assert.Equal(t, 1, a.SetFlags["k"])
	})
}

func TestPatchApply(t *testing.T) {
	t.Run("replacement happens before appends", func(t *testing.T) {
		state := NewAgentState("conv-1")
		state.AddMessage(NewUserMessage("long history"))
		state.AddMessage(NewAssistantMessage("more history"))

		summary := []Message{NewMessage(RoleSystem, "summary of prior context")}
		p := Patch{
			SetMessages:    &summary,
			AppendMessages: []Message{NewAssistantMessage("fresh")},
		}

		p.Apply(state)
		require.Len(t, state.Messages, 2)
		assert.Equal(t, RoleSystem, state.Messages[0].Role)
		assert.Equal(t, "fresh", state.Messages[1].Content)
	})

	t.Run("counters, todos, flags and elapsed", func(t *testing.T) {
		state := NewAgentState("conv-1")
		list := todo.NewList()
		list.Create("work")
		elapsed := 2 * time.Second

		p := Patch{
			ModelCallsDelta: 1,
			ToolCallsDelta:  3,
			UsageDelta:      TokenUsage{TotalTokens: 42},
			SetTodos:        list,
			SetFlags:        map[string]any{FlagReplanNeeded: true},
			SetElapsed:      &elapsed,
		}

		p.Apply(state)
		assert.Equal(t, 1, state.ModelCalls)
		assert.Equal(t, 3, state.ToolCalls)
		assert.Equal(t, 42, state.Usage.TotalTokens)
		assert.Equal(t, 1, state.Todos.Len())
		assert.Equal(t, elapsed, state.Elapsed)

		v, ok := state.Flag(FlagReplanNeeded)
		require.True(t, ok)
		assert.Equal(t, true, v)
	})

	t.Run("clear flags after set", func(t *testing.T) {
		state := NewAgentState("conv-1")
		state.SetFlag(FlagReplanNeeded, true)

		p := Patch{ClearFlags: []string{FlagReplanNeeded}}
		p.Apply(state)

		_, ok := state.Flag(FlagReplanNeeded)
		assert.False(t, ok)
	})

	t.Run("zero patch", func(t *testing.T) {
		assert.True(t, Patch{}.IsZero())
		assert.False(t, Patch{ModelCallsDelta: 1}.IsZero())
	})
}
