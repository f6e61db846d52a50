package middleware

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
)

// Hook identifies one of the five lifecycle phases.
type Hook string

// Lifecycle hooks in invocation order.
const (
	HookBeforeAgent Hook = "before_agent" // Once, at turn start
	HookBeforeModel Hook = "before_model" // Every cycle, before invocation
	HookAfterModel  Hook = "after_model"  // Every cycle, after invocation, before routing
	HookAfterTools  Hook = "after_tools"  // After each tool batch
	HookAfterAgent  Hook = "after_agent"  // Once, at turn end
)

// Middleware observes turn lifecycle phases and contributes partial state
// updates. Implementations embed Base and override only the hooks they need;
// the state argument is read-only and all changes must travel through the
// returned patch.
type Middleware interface {
	// Name identifies the middleware in logs and fault reports.
	Name() string

	BeforeAgent(ctx context.Context, state *core.AgentState) (core.Patch, error)
	BeforeModel(ctx context.Context, state *core.AgentState) (core.Patch, error)
	AfterModel(ctx context.Context, state *core.AgentState) (core.Patch, error)
	AfterTools(ctx context.Context, state *core.AgentState) (core.Patch, error)
	AfterAgent(ctx context.Context, state *core.AgentState) (core.Patch, error)
}

// Base provides no-op implementations of every hook. Embed it so new hooks
// added to the interface never break existing middlewares.
type Base struct{}

// BeforeAgent implements Middleware.
func (Base) BeforeAgent(context.Context, *core.AgentState) (core.Patch, error) {
	return core.Patch{}, nil
}

// BeforeModel implements Middleware.
func (Base) BeforeModel(context.Context, *core.AgentState) (core.Patch, error) {
	return core.Patch{}, nil
}

// AfterModel implements Middleware.
func (Base) AfterModel(context.Context, *core.AgentState) (core.Patch, error) {
	return core.Patch{}, nil
}

// AfterTools implements Middleware.
func (Base) AfterTools(context.Context, *core.AgentState) (core.Patch, error) {
	return core.Patch{}, nil
}

// AfterAgent implements Middleware.
func (Base) AfterAgent(context.Context, *core.AgentState) (core.Patch, error) {
	return core.Patch{}, nil
}

// ChainOptions configure a Chain.
type ChainOptions struct {
	Logger logging.Logger
}

// Chain runs a middleware stack with per-hook fault isolation. Patches are
// applied to the state as each middleware returns, so later middlewares
// observe earlier contributions already in effect.
type Chain struct {
	middlewares []Middleware
	logger      logging.Logger
}

// NewChain creates a chain over the given middlewares, run in order.
func NewChain(middlewares []Middleware, optFns ...func(o *ChainOptions)) *Chain {
	opts := ChainOptions{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Chain{
		middlewares: append([]Middleware{}, middlewares...),
		logger:      opts.Logger,
	}
}

// Len returns the number of middlewares in the chain.
func (c *Chain) Len() int { return len(c.middlewares) }

// Run invokes the given hook on every middleware, applying each returned
// patch to the state immediately and returning the cumulative merge. A hook
// that returns an error or panics is logged with a state snapshot and
// contributes nothing; the turn always continues.
func (c *Chain) Run(ctx context.Context, hook Hook, state *core.AgentState) core.Patch {
	var merged core.Patch

	for _, mw := range c.middlewares {
		patch, err := c.invoke(ctx, mw, hook, state)
		if err != nil {
			c.logger.Error("middleware.fault",
				"middleware", mw.Name(),
				"hook", string(hook),
				"error", err.Error(),
				"messages", len(state.Messages),
				"model_calls", state.ModelCalls,
				"tool_calls", state.ToolCalls,
			)

			continue
		}

		if patch.IsZero() {
			continue
		}

		patch.Apply(state)
		merged = merged.Merge(patch)
	}

	return merged
}

// invoke dispatches one hook call, converting panics into errors.
func (c *Chain) invoke(ctx context.Context, mw Middleware, hook Hook, state *core.AgentState) (patch core.Patch, err error) {
	defer func() {
		if r := recover(); r != nil {
			patch = core.Patch{}
			err = fmt.Errorf("panic in %s: %v", hook, r)
		}
	}()

	switch hook {
	case HookBeforeAgent:
		return mw.BeforeAgent(ctx, state)
	case HookBeforeModel:
		return mw.BeforeModel(ctx, state)
	case HookAfterModel:
		return mw.AfterModel(ctx, state)
	case HookAfterTools:
		return mw.AfterTools(ctx, state)
	case HookAfterAgent:
		return mw.AfterAgent(ctx, state)
	default:
		return core.Patch{}, fmt.Errorf("unknown hook %q", hook)
	}
}
