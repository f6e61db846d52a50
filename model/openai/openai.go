// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including function/tool calling). It adapts the
// engine's normalized Request/Response structures into the SDK's message
// format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
)

// Options configure the OpenAI model adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Invoke performs one non-streaming chat completion and maps the first choice
// into the unified response shape.
func (m *Model) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}

	ch0 := resp.Choices[0]

	out := &model.Response{
		ID:           resp.ID,
		Content:      ch0.Message.Content,
		FinishReason: ch0.FinishReason,
	}

	for _, tc := range ch0.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	if resp.Usage.TotalTokens > 0 {
		out.Usage = &core.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		}
	}

	return out, nil
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}

	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}

	params.Tools = tools

	return params
}

// buildMessages converts the normalized conversation into OpenAI chat
// messages. Assistant tool-call requests and the tool results that answer
// them keep their original interleaving.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case core.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}

			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}

			assistant := &openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}

			// Text emitted alongside tool calls must survive the round trip.
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}

			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			if msg.Content != "" {
				messages = append(messages, openai.UserMessage(msg.Content))
			}
		}
	}

	return messages
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
