// Package prompt builds the system prompt injected on every model cycle. A
// Builder must be a pure function of the turn state: same state in, same
// prompt out, no side effects.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// Builder produces the system prompt for one model cycle from the current
// turn state.
type Builder func(state *core.AgentState) string

// Default returns the engine's standard prompt builder. The base prompt is
// extended with a task-management section while a todo list exists and with
// a wrap-up instruction when token usage has crossed a threshold.
func Default(basePrompt string) Builder {
	return func(state *core.AgentState) string {
		var b strings.Builder
		b.WriteString(basePrompt)

		if state.Todos != nil && state.Todos.Len() > 0 {
			writeTaskSection(&b, state)
		}

		if level, ok := state.Flag(core.FlagTokenWarning); ok {
			writeTokenSection(&b, level)
		}

		return b.String()
	}
}

func writeTaskSection(b *strings.Builder, state *core.AgentState) {
	summary := state.Todos.Summary()

	b.WriteString("\n\n## Task progress\n")
	fmt.Fprintf(b, "%d of %d tasks completed (%.0f%%).\n",
		summary.Completed, summary.Total, summary.CompletionPercentage)

	if active, ok := state.Todos.Active(); ok {
		fmt.Fprintf(b, "Current task: %s (%s)\n", active.Content, active.ID)
	}

	b.WriteString("Use the todo tools to track your work: ")
	b.WriteString("todo_list shows all tasks, todo_create_task adds one, ")
	b.WriteString("todo_update_status records progress, todo_set_active switches focus.\n")
	b.WriteString("Mark a task completed as soon as it is done.")
}

func writeTokenSection(b *strings.Builder, level any) {
	b.WriteString("\n\n## Context limit\n")

	if level == "critical" {
		b.WriteString("The conversation is close to its context limit. Finish the current step and give your final answer now.")
		return
	}

	b.WriteString("The conversation is getting long. Be brief and avoid unnecessary tool calls.")
}
