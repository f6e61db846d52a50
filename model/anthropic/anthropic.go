// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

// Invoke performs one non-streaming Messages API call and maps the content
// blocks into the unified response shape.
func (m *Model) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    m.buildMessages(req.Messages),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	if len(req.Tools) > 0 {
		params.Tools = m.buildTools(req.Tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := &model.Response{
		ID:           resp.ID,
		FinishReason: "stop",
	}

	if resp.StopReason != "" {
		out.FinishReason = string(resp.StopReason)
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()

			args := ""
			if toolBlock.Input != nil {
				if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(argsBytes)
				}
			}

			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}

	if resp.Usage.InputTokens > 0 || resp.Usage.OutputTokens > 0 {
		out.Usage = &core.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		}
	}

	return out, nil
}

// buildMessages converts the normalized conversation to Anthropic message
// format. System messages are handled separately via the System param; tool
// results become tool_result blocks in user-role messages, which is how the
// Messages API expects them.
func (m *Model) buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			content := m.buildAssistantContent(msg)
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleTool:
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError),
			))
		default:
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}

	return out
}

// buildAssistantContent builds content blocks for assistant messages
func (m *Model) buildAssistantContent(msg core.Message) []anthropic.ContentBlockParamUnion {
	var content []anthropic.ContentBlockParamUnion

	if msg.Content != "" {
		content = append(content, anthropic.NewTextBlock(msg.Content))
	}

	for _, tc := range msg.ToolCalls {
		// Parse the arguments JSON for the tool call
		var input interface{}
		if tc.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
				input = tc.Arguments // fallback to string
			}
		}

		content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
	}

	return content
}

// buildTools converts unified tool definitions to Anthropic tool format
func (m *Model) buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if tool.Function.Parameters != nil {
			params := tool.Function.Parameters
			if properties, exists := params["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := params["required"]; exists {
				if reqSlice, ok := required.([]string); ok {
					inputSchema.Required = reqSlice
				} else if reqInterface, ok := required.([]interface{}); ok {
					var reqStrings []string
					for _, r := range reqInterface {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Function.Name)
	}

	return anthropicTools
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
