package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/todo"
)

func TestDefault(t *testing.T) {
	builder := Default("You are a helpful assistant.")

	t.Run("base prompt only", func(t *testing.T) {
		state := core.NewAgentState("conv-1")

		got := builder(state)
		assert.Equal(t, "You are a helpful assistant.", got)
	})

	t.Run("task section while a list exists", func(t *testing.T) {
		state := core.NewAgentState("conv-1")
		state.Todos = todo.NewList()
		task, err := state.Todos.Create("write the parser")
		require.NoError(t, err)
		state.Todos.SetActive(task.ID)

		got := builder(state)
		assert.Contains(t, got, "Task progress")
		assert.Contains(t, got, "write the parser")
		assert.Contains(t, got, "todo_update_status")
	})

	t.Run("empty list adds no task section", func(t *testing.T) {
		state := core.NewAgentState("conv-1")
		state.Todos = todo.NewList()

		got := builder(state)
		assert.NotContains(t, got, "Task progress")
	})

	t.Run("token warning sections", func(t *testing.T) {
		state := core.NewAgentState("conv-1")
		state.SetFlag(core.FlagTokenWarning, "warning")
		assert.Contains(t, builder(state), "getting long")

		state.SetFlag(core.FlagTokenWarning, "critical")
		assert.Contains(t, builder(state), "final answer now")
	})

	t.Run("pure function of state", func(t *testing.T) {
		state := core.NewAgentState("conv-1")
		state.Todos = todo.NewList()
		state.Todos.Create("task")

		assert.Equal(t, builder(state), builder(state))
	})
}
