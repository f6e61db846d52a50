package core

import (
	"time"

	"github.com/hupe1980/agentgraph/todo"
)

// Well-known flag keys set on AgentState by graph nodes and middleware.
const (
	// FlagReplanNeeded signals that the active task assignment should be
	// discarded and the planner re-run.
	FlagReplanNeeded = "replan_needed"

	// FlagTokenWarning carries the most recent token threshold level
	// ("warning" or "critical") observed by token tracking.
	FlagTokenWarning = "token_warning"
)

// AgentState is the mutable context of a single conversational turn: message
// history, token and call counters, the todo list, and arbitrary flags. It is
// owned exclusively by one turn and never shared across concurrent turns, so
// no locking is performed.
type AgentState struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []Message      `json:"messages"`
	Todos          *todo.List     `json:"todos,omitempty"`
	ModelCalls     int            `json:"model_calls"`
	ToolCalls      int            `json:"tool_calls"`
	Usage          TokenUsage     `json:"usage"`
	StartedAt      time.Time      `json:"started_at"`
	Elapsed        time.Duration  `json:"elapsed"`
	Flags          map[string]any `json:"flags,omitempty"`
}

// NewAgentState creates a fresh state for one turn of the given conversation.
func NewAgentState(conversationID string) *AgentState {
	return &AgentState{
		ConversationID: conversationID,
		Messages:       []Message{},
		StartedAt:      time.Now().UTC(),
		Flags:          map[string]any{},
	}
}

// AddMessage appends a message to the history.
func (s *AgentState) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// LastMessage returns the most recent message, or nil if the history is empty.
func (s *AgentState) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// LastAssistantMessage returns the most recent assistant message, or nil.
func (s *AgentState) LastAssistantMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return &s.Messages[i]
		}
	}
	return nil
}

// LastUserMessage returns the most recent user-authored message, or nil.
func (s *AgentState) LastUserMessage() *Message {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return &s.Messages[i]
		}
	}
	return nil
}

// Flag returns the value and existence flag for a state flag key.
func (s *AgentState) Flag(key string) (any, bool) {
	v, ok := s.Flags[key]
	return v, ok
}

// SetFlag sets a flag key, allocating the map on first use.
func (s *AgentState) SetFlag(key string, value any) {
	if s.Flags == nil {
		s.Flags = map[string]any{}
	}
	s.Flags[key] = value
}

// ClearFlag removes a flag key.
func (s *AgentState) ClearFlag(key string) {
	delete(s.Flags, key)
}

// Clone performs a deep copy for safe divergence: messages, flags and the
// todo list are all copied so that mutations of the clone never reach the
// original. Used for fault snapshots and checkpointing.
func (s *AgentState) Clone() *AgentState {
	clone := *s

	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)

	if s.Flags != nil {
		clone.Flags = make(map[string]any, len(s.Flags))
		for k, v := range s.Flags {
			clone.Flags[k] = v
		}
	}

	if s.Todos != nil {
		clone.Todos = s.Todos.Clone()
	}

	return &clone
}
