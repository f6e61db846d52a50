package core

import (
	"time"

	"github.com/hupe1980/agentgraph/todo"
)

// Patch is a partial AgentState update contributed by a middleware hook or a
// graph node. Zero-valued fields mean "no change". Patches are merged with
// deterministic last-writer-wins semantics per field (see Merge) and applied
// to a state in one step (see Apply), preserving the invariant that later
// contributors observe earlier contributions already in effect.
type Patch struct {
	// AppendMessages are added to the history in order.
	AppendMessages []Message

	// SetMessages, when non-nil, replaces the entire history (summarization).
	// Replacement wins over any appends carried by the same patch.
	SetMessages *[]Message

	// Counter and usage deltas accumulate across merged patches.
	ModelCallsDelta int
	ToolCallsDelta  int
	UsageDelta      TokenUsage

	// SetTodos, when non-nil, replaces the todo list.
	SetTodos *todo.List

	// SetFlags overwrites individual flag keys.
	SetFlags map[string]any

	// ClearFlags removes flag keys after SetFlags is applied.
	ClearFlags []string

	// SetElapsed, when non-nil, records the turn's final elapsed time.
	SetElapsed *time.Duration
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return len(p.AppendMessages) == 0 &&
		p.SetMessages == nil &&
		p.ModelCallsDelta == 0 &&
		p.ToolCallsDelta == 0 &&
		p.UsageDelta == (TokenUsage{}) &&
		p.SetTodos == nil &&
		len(p.SetFlags) == 0 &&
		len(p.ClearFlags) == 0 &&
		p.SetElapsed == nil
}

// Merge combines p with a later patch. Deltas and appended messages
// accumulate; replacement fields (SetMessages, SetTodos, SetElapsed, each
// SetFlags key) take the later patch's value.
func (p Patch) Merge(later Patch) Patch {
	merged := p

	merged.AppendMessages = append(append([]Message{}, p.AppendMessages...), later.AppendMessages...)
	merged.ModelCallsDelta += later.ModelCallsDelta
	merged.ToolCallsDelta += later.ToolCallsDelta
	merged.UsageDelta = p.UsageDelta.Add(later.UsageDelta)

	if later.SetMessages != nil {
		merged.SetMessages = later.SetMessages
	}

	if later.SetTodos != nil {
		merged.SetTodos = later.SetTodos
	}

	if later.SetElapsed != nil {
		merged.SetElapsed = later.SetElapsed
	}

	if len(later.SetFlags) > 0 {
		flags := make(map[string]any, len(p.SetFlags)+len(later.SetFlags))
		for k, v := range p.SetFlags {
			flags[k] = v
		}
		for k, v := range later.SetFlags {
			flags[k] = v
		}
		merged.SetFlags = flags
	}

	merged.ClearFlags = append(append([]string{}, p.ClearFlags...), later.ClearFlags...)

	return merged
}

// Apply mutates state with the patch's changes. Replacement of the message
// history happens before appends so a patch may both compress and extend.
func (p Patch) Apply(state *AgentState) {
	if state == nil {
		return
	}

	if p.SetMessages != nil {
		state.Messages = append([]Message{}, (*p.SetMessages)...)
	}

	state.Messages = append(state.Messages, p.AppendMessages...)
	state.ModelCalls += p.ModelCallsDelta
	state.ToolCalls += p.ToolCallsDelta
	state.Usage = state.Usage.Add(p.UsageDelta)

	if p.SetTodos != nil {
		state.Todos = p.SetTodos
	}

	for k, v := range p.SetFlags {
		state.SetFlag(k, v)
	}

	for _, k := range p.ClearFlags {
		state.ClearFlag(k)
	}

	if p.SetElapsed != nil {
		state.Elapsed = *p.SetElapsed
	}
}
