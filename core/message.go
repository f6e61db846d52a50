package core

import "github.com/google/uuid"

// Role identifies the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall describes a model-issued request to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`                  // Stable call id, echoed back in the result message
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// TokenUsage captures provider-reported token counts for one model call.
// Counts are zero when the provider returns no usage metadata.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns the element-wise sum of two usages.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Message is a role-tagged conversation entry. Assistant messages may carry
// tool-call requests; tool messages carry the result of one call, correlated
// by ToolCallID. After emission a message should be treated as immutable.
type Message struct {
	ID         string      `json:"id"`
	Role       Role        `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`   // Present on assistant messages requesting tools
	ToolCallID string      `json:"tool_call_id,omitempty"` // Present on tool result messages
	ToolName   string      `json:"tool_name,omitempty"`    // Present on tool result messages
	IsError    bool        `json:"is_error,omitempty"`     // Marks a failed tool result
	Usage      *TokenUsage `json:"usage,omitempty"`        // Provider usage metadata, if reported
}

// NewMessage creates a message with a fresh id.
func NewMessage(role Role, content string) Message {
	return Message{ID: NewID(), Role: role, Content: content}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates an assistant text message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewToolResultMessage creates a tool result message correlated with the
// originating call. Error results carry the error text as content with
// IsError set.
func NewToolResultMessage(callID, toolName, content string, isErr bool) Message {
	m := NewMessage(RoleTool, content)
	m.ToolCallID = callID
	m.ToolName = toolName
	m.IsError = isErr
	return m
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// NewID generates a globally unique identifier (UUID v4 string).
func NewID() string { return uuid.NewString() }
