package graph

import (
	"context"
	"math"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/prompt"
)

// FallbackMessage is emitted as the assistant reply when every invocation
// attempt has failed. A cycle must always yield exactly one assistant
// message; a broken turn is never surfaced to the user.
const FallbackMessage = "Technical difficulties. Please try again."

// ModelInvoker performs one bounded-retry model cycle: rebuild the system
// prompt from current state, bind the available tools, invoke with backoff
// between attempts, and degrade to the fallback message on final failure.
// Regardless of retries, the returned patch carries exactly one new message
// and a model-call increment of exactly 1.
type ModelInvoker struct {
	model         model.Model
	promptBuilder prompt.Builder
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	logger        logging.Logger
}

// NewModelInvoker creates an invoker from the graph config.
func NewModelInvoker(cfg Config) *ModelInvoker {
	return &ModelInvoker{
		model:         cfg.Model,
		promptBuilder: cfg.PromptBuilder,
		maxRetries:    cfg.MaxRetries,
		initialDelay:  cfg.InitialDelay,
		backoffFactor: cfg.BackoffFactor,
		logger:        cfg.Logger,
	}
}

// Invoke runs one model cycle against the given state and tool set.
func (iv *ModelInvoker) Invoke(ctx context.Context, state *core.AgentState, tools []model.ToolDefinition) core.Patch {
	bound := model.Bind(iv.model, tools)

	req := model.Request{
		System:   iv.promptBuilder(state),
		Messages: state.Messages,
	}

	var lastErr error

	for attempt := 0; attempt < iv.maxRetries; attempt++ {
		if attempt > 0 {
			if err := iv.wait(ctx, attempt-1); err != nil {
				break
			}
		}

		start := time.Now()

		resp, err := bound.Invoke(ctx, req)
		if err != nil {
			lastErr = err
			iv.logger.Warn("model.call.failed",
				"attempt", attempt+1,
				"max_attempts", iv.maxRetries,
				"error", err.Error(),
			)

			continue
		}

		patch := core.Patch{
			AppendMessages:  []core.Message{resp.Message()},
			ModelCallsDelta: 1,
		}

		if resp.Usage != nil {
			patch.UsageDelta = *resp.Usage
		}

		iv.logger.Debug("model.call.ok",
			"duration_ms", time.Since(start).Milliseconds(),
			"tool_calls", len(resp.ToolCalls),
			"tokens", patch.UsageDelta.TotalTokens,
		)

		return patch
	}

	iv.logger.Error("model.call.exhausted",
		"attempts", iv.maxRetries,
		"error", errString(lastErr),
	)

	return core.Patch{
		AppendMessages:  []core.Message{core.NewAssistantMessage(FallbackMessage)},
		ModelCallsDelta: 1,
	}
}

// wait sleeps for initialDelay * backoffFactor^attempt, or returns early
// when the context is done.
func (iv *ModelInvoker) wait(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(iv.initialDelay) * math.Pow(iv.backoffFactor, float64(attempt)))
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
