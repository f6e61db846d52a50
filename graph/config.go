package graph

import (
	"fmt"
	"time"

	"github.com/hupe1980/agentgraph/checkpoint"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/memory"
	"github.com/hupe1980/agentgraph/middleware"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/planner"
	"github.com/hupe1980/agentgraph/prompt"
	"github.com/hupe1980/agentgraph/tool"
)

// ConfigError reports an invalid graph configuration. It is the only error
// class that aborts anything: it surfaces at build time, before any turn
// starts.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// Defaults applied by New for zero-valued config fields.
const (
	DefaultMaxModelCalls = 10
	DefaultMaxRetries    = 3
	DefaultInitialDelay  = 500 * time.Millisecond
	DefaultBackoff       = 2.0
	DefaultBasePrompt    = "You are a helpful assistant. Use the available tools when they help you answer."
)

// Config assembles a Graph. Zero values select documented defaults; invalid
// values fail New with a ConfigError.
type Config struct {
	// Model handles every chat invocation. Required.
	Model model.Model

	// Tools are the base capabilities exposed to the model on every cycle.
	// Task-management tools are added automatically while a todo list exists.
	Tools []tool.Tool

	// Middlewares run in order at each lifecycle hook, after the built-ins.
	Middlewares []middleware.Middleware

	// PromptBuilder rebuilds the system prompt each cycle from current
	// state. Defaults to prompt.Default(DefaultBasePrompt).
	PromptBuilder prompt.Builder

	// MaxModelCalls is the hard ceiling on model cycles per turn.
	MaxModelCalls int

	// MaxRetries bounds the attempts of a single model invocation. The
	// delay before attempt n+1 is InitialDelay * BackoffFactor^n.
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64

	// DisableTodo switches the task subsystem off entirely; DisableTodoFeedback
	// keeps task tools but skips progress analysis after tool batches.
	DisableTodo         bool
	DisableTodoFeedback bool

	// PlannerStrategy selects how planning decisions are made. PlannerModel,
	// when set, enables the model-assisted strategies; it may be the main
	// Model or a cheaper one.
	PlannerStrategy planner.Strategy
	PlannerModel    model.Model

	// MemoryStore, when set, enables memory loading at turn start.
	MemoryStore memory.Store

	// SummarizerModel, when set, enables context compression before model
	// calls once the history crosses the summarization threshold.
	SummarizerModel model.Model

	// DisablePIIScan switches off redaction of assistant output.
	DisablePIIScan bool

	// Saver, when set, persists the final state of every turn and seeds the
	// next turn of the same conversation with the saved history.
	Saver checkpoint.Saver

	// MaxParallelTools bounds concurrent dispatch within one tool batch.
	// Values below 2 mean sequential execution. Results are always returned
	// in request order.
	MaxParallelTools int

	Logger logging.Logger
}

// withDefaults returns a copy of the config with defaults filled in.
func (c Config) withDefaults() Config {
	if c.PromptBuilder == nil {
		c.PromptBuilder = prompt.Default(DefaultBasePrompt)
	}

	if c.MaxModelCalls == 0 {
		c.MaxModelCalls = DefaultMaxModelCalls
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}

	if c.InitialDelay == 0 {
		c.InitialDelay = DefaultInitialDelay
	}

	if c.BackoffFactor == 0 {
		c.BackoffFactor = DefaultBackoff
	}

	if c.PlannerStrategy == "" {
		c.PlannerStrategy = planner.StrategyAuto
	}

	if c.Logger == nil {
		c.Logger = logging.NoOpLogger{}
	}

	return c
}

// validate checks the filled-in config.
func (c Config) validate() error {
	if c.Model == nil {
		return &ConfigError{Field: "Model", Message: "a model is required"}
	}

	if c.MaxModelCalls < 1 {
		return &ConfigError{Field: "MaxModelCalls", Message: "must be at least 1"}
	}

	if c.MaxRetries < 1 {
		return &ConfigError{Field: "MaxRetries", Message: "must be at least 1"}
	}

	if c.InitialDelay < 0 {
		return &ConfigError{Field: "InitialDelay", Message: "must not be negative"}
	}

	if c.BackoffFactor < 1 {
		return &ConfigError{Field: "BackoffFactor", Message: "must be at least 1"}
	}

	if c.MaxParallelTools < 0 {
		return &ConfigError{Field: "MaxParallelTools", Message: "must not be negative"}
	}

	switch c.PlannerStrategy {
	case planner.StrategyHeuristic, planner.StrategyModel, planner.StrategyAuto:
	default:
		return &ConfigError{Field: "PlannerStrategy", Message: fmt.Sprintf("unknown strategy %q", c.PlannerStrategy)}
	}

	if c.PlannerStrategy == planner.StrategyModel && c.PlannerModel == nil {
		return &ConfigError{Field: "PlannerModel", Message: "required for the model planner strategy"}
	}

	seen := make(map[string]struct{}, len(c.Tools))
	for _, t := range c.Tools {
		if _, dup := seen[t.Name()]; dup {
			return &ConfigError{Field: "Tools", Message: fmt.Sprintf("duplicate tool name %q", t.Name())}
		}

		seen[t.Name()] = struct{}{}
	}

	return nil
}
