package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (draft agnostic, minimal subset
// expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the graph. The
// system prompt travels separately from the conversation so providers can map
// it to their native instruction slot.
type Request struct {
	System      string           `json:"system,omitempty"`
	Messages    []core.Message   `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

// Response is the final completion of one model invocation.
type Response struct {
	ID           string           `json:"id"`
	Content      string           `json:"content"`
	ToolCalls    []core.ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string           `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *core.TokenUsage `json:"usage,omitempty"`
}

// Message converts the response into an assistant conversation message,
// carrying over tool calls and usage metadata.
func (r *Response) Message() core.Message {
	msg := core.NewAssistantMessage(r.Content)
	msg.ToolCalls = append([]core.ToolCall{}, r.ToolCalls...)
	msg.Usage = r.Usage

	return msg
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the graph to drive generation.
// Invoke blocks until the provider returns a complete response; there is no
// partial-result streaming.
type Model interface {
	Invoke(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// BoundModel wraps a Model with a fixed tool set merged into every request.
// Request-level tools, when present, win over the bound set.
type BoundModel struct {
	model Model
	tools []ToolDefinition
}

// Bind returns the model bound to the given tool set.
func Bind(m Model, tools []ToolDefinition) *BoundModel {
	return &BoundModel{model: m, tools: append([]ToolDefinition{}, tools...)}
}

// Invoke implements Model, injecting the bound tools when the request carries none.
func (b *BoundModel) Invoke(ctx context.Context, req Request) (*Response, error) {
	if len(req.Tools) == 0 {
		req.Tools = b.tools
	}

	return b.model.Invoke(ctx, req)
}

// Info implements Model.
func (b *BoundModel) Info() Info { return b.model.Info() }

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Scripted responses are consumed in order; when the script is exhausted,
// canned prompt lookups and finally an echo response apply.
type MockModel struct {
	info        Info
	responses   map[string]string
	script      []ScriptedResponse
	scriptPos   int
	invokeErr   error
	FailFirst   int // Fail this many invocations before succeeding
	Invocations []Request
}

// ScriptedResponse is one entry of a MockModel's ordered script.
type ScriptedResponse struct {
	Content   string
	ToolCalls []core.ToolCall
	Usage     *core.TokenUsage
	Err       error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Enqueue appends scripted responses consumed in order before canned lookups.
func (m *MockModel) Enqueue(responses ...ScriptedResponse) {
	m.script = append(m.script, responses...)
}

// SetError makes every invocation fail with err until cleared.
func (m *MockModel) SetError(err error) { m.invokeErr = err }

// Invoke implements Model.
func (m *MockModel) Invoke(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.Invocations = append(m.Invocations, req)

	if m.FailFirst > 0 {
		m.FailFirst--
		return nil, fmt.Errorf("mock model: transient failure")
	}

	if m.invokeErr != nil {
		return nil, m.invokeErr
	}

	if m.scriptPos < len(m.script) {
		scripted := m.script[m.scriptPos]
		m.scriptPos++

		if scripted.Err != nil {
			return nil, scripted.Err
		}

		resp := &Response{
			ID:           core.NewID(),
			Content:      scripted.Content,
			ToolCalls:    scripted.ToolCalls,
			FinishReason: "stop",
			Usage:        scripted.Usage,
		}
		if len(scripted.ToolCalls) > 0 {
			resp.FinishReason = "tool_calls"
		}

		return resp, nil
	}

	input := lastText(req.Messages)
	content := m.responses[input]

	if content == "" {
		content = "Mock response to: " + input
	}

	return &Response{
		ID:           core.NewID(),
		Content:      content,
		FinishReason: "stop",
		Usage:        &core.TokenUsage{InputTokens: len(strings.Fields(input)), OutputTokens: len(strings.Fields(content)), TotalTokens: len(strings.Fields(input)) + len(strings.Fields(content))},
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

func lastText(messages []core.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == core.RoleUser || messages[i].Role == core.RoleTool {
			return messages[i].Content
		}
	}

	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}

	return ""
}
