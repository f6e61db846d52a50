package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// ToolExecutor dispatches the tool calls requested by the last assistant
// message. Each call executes independently: a failing or panicking call is
// converted into an error-annotated tool-result message tagged with the call
// id and tool name, and never prevents the other calls from returning. The
// result messages always match the request order, regardless of dispatch
// order.
type ToolExecutor struct {
	registry    map[string]tool.Tool
	maxParallel int
	logger      logging.Logger
}

// NewToolExecutor creates an executor over the given tool set. maxParallel
// below 2 means sequential execution.
func NewToolExecutor(tools []tool.Tool, maxParallel int, logger logging.Logger) *ToolExecutor {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	registry := make(map[string]tool.Tool, len(tools))
	for _, t := range tools {
		registry[t.Name()] = t
	}

	return &ToolExecutor{
		registry:    registry,
		maxParallel: maxParallel,
		logger:      logger,
	}
}

// Execute runs the tool batch of the last assistant message. A state whose
// last message carries no tool-call requests passes through unchanged.
func (e *ToolExecutor) Execute(ctx context.Context, state *core.AgentState) core.Patch {
	last := state.LastMessage()
	if last == nil || last.Role != core.RoleAssistant || !last.HasToolCalls() {
		return core.Patch{}
	}

	calls := last.ToolCalls
	results := make([]core.Message, len(calls))

	if len(calls) == 1 || e.maxParallel < 2 {
		for i, call := range calls {
			results[i] = e.executeOne(ctx, call)
		}
	} else {
		e.executeParallel(ctx, calls, results)
	}

	return core.Patch{
		AppendMessages: results,
		ToolCallsDelta: len(calls),
	}
}

// executeParallel dispatches calls concurrently under a semaphore, buffering
// results by index so emission order matches request order.
func (e *ToolExecutor) executeParallel(ctx context.Context, calls []core.ToolCall, results []core.Message) {
	maxPar := e.maxParallel
	if maxPar > len(calls) {
		maxPar = len(calls)
	}

	sem := make(chan struct{}, maxPar)

	var wg sync.WaitGroup

	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, call core.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx] = e.executeOne(ctx, call)
		}(i, calls[i])
	}

	wg.Wait()
}

// executeOne runs a single call with panic safety and converts the outcome
// into a tool-result message.
func (e *ToolExecutor) executeOne(ctx context.Context, call core.ToolCall) core.Message {
	start := time.Now()

	result, err := e.invoke(ctx, call)

	e.logger.Info("tool.executed",
		"tool", call.Name,
		"call_id", call.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	if err != nil {
		return core.NewToolResultMessage(call.ID, call.Name, fmt.Sprintf("Error: %v", err), true)
	}

	return core.NewToolResultMessage(call.ID, call.Name, renderResult(result), false)
}

func (e *ToolExecutor) invoke(ctx context.Context, call core.ToolCall) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic in tool %s: %v", call.Name, r)
		}
	}()

	t, ok := e.registry[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if uerr := json.Unmarshal([]byte(call.Arguments), &args); uerr != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", call.Name, uerr)
		}
	}

	return t.Call(ctx, args)
}

// renderResult serializes a tool result for the conversation. Strings pass
// through; everything else becomes JSON.
func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	}
}
