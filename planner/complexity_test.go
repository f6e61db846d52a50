package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/todo"
)

func TestComplexityDetectorHeuristic(t *testing.T) {
	d := NewComplexityDetector(func(o *ComplexityDetectorOptions) {
		o.Strategy = StrategyHeuristic
	})

	ctx := context.Background()

	t.Run("existing tasks short-circuit", func(t *testing.T) {
		result := d.Analyze(ctx, "Please build and deploy a complete multi-service platform step by step", 1)
		assert.False(t, result.NeedsList)
		assert.Empty(t, result.SuggestedTasks)
	})

	t.Run("simple question needs no list", func(t *testing.T) {
		result := d.Analyze(ctx, "What is 2+2?", 0)
		assert.False(t, result.NeedsList)
	})

	t.Run("two keywords trigger a high priority task", func(t *testing.T) {
		result := d.Analyze(ctx, "Build the service and deploy it", 0)
		require.True(t, result.NeedsList)
		require.Len(t, result.SuggestedTasks, 1)
		assert.Equal(t, todo.PriorityHigh, result.SuggestedTasks[0].Priority)
	})

	t.Run("long request triggers a medium priority task", func(t *testing.T) {
		request := strings.Repeat("please explain this topic in much more depth ", 7) // > 30 words, no keywords
		result := d.Analyze(ctx, request, 0)
		require.True(t, result.NeedsList)
		require.Len(t, result.SuggestedTasks, 1)
		assert.Equal(t, todo.PriorityMedium, result.SuggestedTasks[0].Priority)
	})

	t.Run("synthesized content is truncated", func(t *testing.T) {
		request := "implement and configure " + strings.Repeat("x", 300)
		result := d.Analyze(ctx, request, 0)
		require.True(t, result.NeedsList)
		assert.LessOrEqual(t, len(result.SuggestedTasks[0].Content), synthesizedTaskMaxLen+3)
	})

	t.Run("truncation keeps multi-byte runes intact", func(t *testing.T) {
		request := "implement and configure " + strings.Repeat("ü", 300)
		result := d.Analyze(ctx, request, 0)
		require.True(t, result.NeedsList)

		content := result.SuggestedTasks[0].Content
		assert.True(t, utf8.ValidString(content))
		assert.LessOrEqual(t, utf8.RuneCountInString(content), synthesizedTaskMaxLen+3)
	})
}

func TestComplexityDetectorModel(t *testing.T) {
	ctx := context.Background()

	t.Run("model output is parsed permissively", func(t *testing.T) {
		m := model.NewMockModel("planner")
		m.Enqueue(model.ScriptedResponse{Content: "```json\n" +
			`{"needs_task_list": true, "reasoning": "multi-step", "suggested_tasks": [{"content": "scaffold service", "priority": "high"}, {"content": "add tests", "priority": "bogus"}]}` +
			"\n```"})

		d := NewComplexityDetector(func(o *ComplexityDetectorOptions) {
			o.Strategy = StrategyModel
			o.Model = m
		})

		result := d.Analyze(ctx, "Set up the service", 0)
		require.True(t, result.NeedsList)
		require.Len(t, result.SuggestedTasks, 2)
		assert.Equal(t, todo.PriorityHigh, result.SuggestedTasks[0].Priority)
		assert.Equal(t, todo.PriorityMedium, result.SuggestedTasks[1].Priority, "unknown priority falls back to medium")
	})

	t.Run("suggested tasks are capped", func(t *testing.T) {
		m := model.NewMockModel("planner")
		m.Enqueue(model.ScriptedResponse{Content: `{"needs_task_list": true, "reasoning": "big", "suggested_tasks": [` +
			`{"content":"a"},{"content":"b"},{"content":"c"},{"content":"d"},{"content":"e"},{"content":"f"},{"content":"g"}]}`})

		d := NewComplexityDetector(func(o *ComplexityDetectorOptions) {
			o.Strategy = StrategyModel
			o.Model = m
		})

		result := d.Analyze(ctx, "Build everything", 0)
		assert.Len(t, result.SuggestedTasks, maxSuggestedTasks)
	})

	t.Run("call failure falls back to heuristic", func(t *testing.T) {
		m := model.NewMockModel("planner")
		m.SetError(errors.New("rate limited"))

		d := NewComplexityDetector(func(o *ComplexityDetectorOptions) {
			o.Strategy = StrategyAuto
			o.Model = m
		})

		result := d.Analyze(ctx, "Build the service and deploy it", 0)
		assert.True(t, result.NeedsList, "heuristic fallback still detects the keywords")
	})

	t.Run("parse failure falls back to heuristic", func(t *testing.T) {
		m := model.NewMockModel("planner")
		m.Enqueue(model.ScriptedResponse{Content: "I cannot answer in JSON, sorry."})

		d := NewComplexityDetector(func(o *ComplexityDetectorOptions) {
			o.Strategy = StrategyModel
			o.Model = m
		})

		result := d.Analyze(ctx, "What is 2+2?", 0)
		assert.False(t, result.NeedsList)
	})
}
