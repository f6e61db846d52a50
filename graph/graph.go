package graph

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentgraph/checkpoint"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/middleware"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/planner"
	"github.com/hupe1980/agentgraph/todo"
	"github.com/hupe1980/agentgraph/tool"
)

// Graph is the compiled orchestration state machine. Build one with New and
// drive turns with Run; a Graph is immutable after construction and safe for
// concurrent turns, since every turn owns its own state.
type Graph struct {
	cfg      Config
	chain    *middleware.Chain
	invoker  *ModelInvoker
	detector *planner.ComplexityDetector
	analyzer *planner.ProgressAnalyzer
}

// New validates the configuration and compiles the graph. It is the only
// place a ConfigError can surface; a built Graph never aborts a turn.
func New(cfg Config) (*Graph, error) {
	cfg = cfg.withDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var builtins []middleware.Middleware

	if cfg.MemoryStore != nil {
		builtins = append(builtins, middleware.NewMemoryLoader(cfg.MemoryStore))
	}

	if cfg.SummarizerModel != nil {
		builtins = append(builtins, middleware.NewSummarizer(cfg.SummarizerModel, func(o *middleware.SummarizerOptions) {
			o.Logger = cfg.Logger
		}))
	}

	builtins = append(builtins, middleware.NewTokenTracker(func(o *middleware.TokenTrackerOptions) {
		o.Logger = cfg.Logger
	}))

	if !cfg.DisablePIIScan {
		builtins = append(builtins, middleware.NewPIIScan(func(o *middleware.ChainOptions) {
			o.Logger = cfg.Logger
		}))
	}

	chain := middleware.NewChain(append(builtins, cfg.Middlewares...), func(o *middleware.ChainOptions) {
		o.Logger = cfg.Logger
	})

	detector := planner.NewComplexityDetector(func(o *planner.ComplexityDetectorOptions) {
		o.Strategy = cfg.PlannerStrategy
		o.Model = cfg.PlannerModel
		o.Logger = cfg.Logger
	})

	analyzer := planner.NewProgressAnalyzer(func(o *planner.ProgressAnalyzerOptions) {
		o.Strategy = cfg.PlannerStrategy
		o.Model = cfg.PlannerModel
		o.Logger = cfg.Logger
	})

	return &Graph{
		cfg:      cfg,
		chain:    chain,
		invoker:  NewModelInvoker(cfg),
		detector: detector,
		analyzer: analyzer,
	}, nil
}

// Run executes one full turn for the given user input and returns the
// terminal state. The returned error is reserved for context cancellation;
// every per-turn fault is recovered into the state itself.
func (g *Graph) Run(ctx context.Context, conversationID, input string) (*core.AgentState, error) {
	state := g.initState(conversationID)
	state.AddMessage(core.NewUserMessage(input))

	return g.RunState(ctx, state)
}

// initState creates the turn state, seeding the message history from the
// checkpointer when a snapshot for the conversation exists. Counters, flags
// and the todo list always start fresh; their lifetime is one turn.
func (g *Graph) initState(conversationID string) *core.AgentState {
	state := core.NewAgentState(conversationID)

	if g.cfg.Saver == nil {
		return state
	}

	saved, err := g.cfg.Saver.Load(conversationID)
	if err != nil {
		if !errors.Is(err, checkpoint.ErrNotFound) {
			g.cfg.Logger.Warn("checkpoint.load_failed", "conversation_id", conversationID, "error", err.Error())
		}

		return state
	}

	state.Messages = append(state.Messages, saved.Messages...)

	return state
}

// RunState executes one full turn over an existing state.
func (g *Graph) RunState(ctx context.Context, state *core.AgentState) (*core.AgentState, error) {
	g.start(state)

	g.chain.Run(ctx, middleware.HookBeforeAgent, state)

	g.todoInit(state)
	g.todoPlan(ctx, state, false)

	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		g.chain.Run(ctx, middleware.HookBeforeModel, state)

		patch := g.invoker.Invoke(ctx, state, tool.Definitions(g.availableTools(state)))
		patch.Apply(state)

		g.chain.Run(ctx, middleware.HookAfterModel, state)

		last := state.LastMessage()
		if last == nil || !last.HasToolCalls() || state.ModelCalls >= g.cfg.MaxModelCalls {
			break
		}

		executor := NewToolExecutor(g.availableTools(state), g.cfg.MaxParallelTools, g.cfg.Logger)
		toolPatch := executor.Execute(ctx, state)
		toolPatch.Apply(state)

		g.chain.Run(ctx, middleware.HookAfterTools, state)

		if !g.todoFeedback(ctx, state) {
			break
		}
	}

	return g.end(ctx, state), nil
}

// start resets the per-turn counters.
func (g *Graph) start(state *core.AgentState) {
	state.ModelCalls = 0
	state.ToolCalls = 0
	state.Usage = core.TokenUsage{}
	state.StartedAt = time.Now().UTC()
	state.Elapsed = 0
	state.Todos = nil
	state.ClearFlag(core.FlagReplanNeeded)
	state.ClearFlag(core.FlagTokenWarning)
}

// end finalizes elapsed time, runs the closing hooks and persists the state.
// It is executed exactly once per turn.
func (g *Graph) end(ctx context.Context, state *core.AgentState) *core.AgentState {
	g.chain.Run(ctx, middleware.HookAfterAgent, state)

	state.Elapsed = time.Since(state.StartedAt)

	if g.cfg.Saver != nil {
		if err := g.cfg.Saver.Save(state); err != nil {
			g.cfg.Logger.Warn("checkpoint.save_failed", "conversation_id", state.ConversationID, "error", err.Error())
		}
	}

	g.cfg.Logger.Info("turn.complete",
		"conversation_id", state.ConversationID,
		"model_calls", state.ModelCalls,
		"tool_calls", state.ToolCalls,
		"total_tokens", state.Usage.TotalTokens,
		"duration_ms", state.Elapsed.Milliseconds(),
	)

	return state
}

// availableTools returns the base tools plus the task-management tools while
// a todo list exists.
func (g *Graph) availableTools(state *core.AgentState) []tool.Tool {
	tools := append([]tool.Tool{}, g.cfg.Tools...)

	if state.Todos != nil {
		tools = append(tools, tool.NewTodoTools(state.Todos)...)
	}

	return tools
}

// todoInit creates the empty task list at turn start.
func (g *Graph) todoInit(state *core.AgentState) {
	if g.cfg.DisableTodo || state.Todos != nil {
		return
	}

	state.Todos = todo.NewList()
}

// todoPlan runs complexity analysis on the initial pass and re-evaluates the
// active-task assignment on a replan. Either way the node guarantees that a
// non-empty list leaves with an active task set.
func (g *Graph) todoPlan(ctx context.Context, state *core.AgentState, replan bool) {
	if state.Todos == nil {
		return
	}

	if replan {
		state.Todos.SetActive("")
	} else if state.Todos.Len() == 0 {
		last := state.LastUserMessage()
		if last == nil {
			return
		}

		result := g.detector.Analyze(ctx, last.Content, state.Todos.Len())
		if result.NeedsList {
			for _, st := range result.SuggestedTasks {
				if _, err := state.Todos.Create(st.Content, func(o *todo.CreateOptions) {
					o.Priority = st.Priority
				}); err != nil {
					g.cfg.Logger.Warn("todo.plan.create_failed", "error", err.Error())
				}
			}

			g.cfg.Logger.Info("todo.planned",
				"tasks", state.Todos.Len(),
				"reasoning", result.Reasoning,
			)
		}
	}

	if state.Todos.ActiveID == "" {
		if next, ok := state.Todos.NextPending(); ok {
			state.Todos.SetActive(next.ID)
		}
	}
}

// todoFeedback runs the progress and check nodes after a tool batch. It
// returns false when the turn should proceed to its terminal state instead
// of another model cycle.
func (g *Graph) todoFeedback(ctx context.Context, state *core.AgentState) bool {
	if g.cfg.DisableTodo || g.cfg.DisableTodoFeedback || state.Todos == nil {
		return true
	}

	g.todoProgress(ctx, state)

	// todo-check
	if _, replan := state.Flag(core.FlagReplanNeeded); replan {
		state.ClearFlag(core.FlagReplanNeeded)
		g.todoPlan(ctx, state, true)

		return true
	}

	if state.Todos.Len() > 0 && state.Todos.AllCompleted() {
		g.cfg.Logger.Info("todo.all_completed", "tasks", state.Todos.Len())
		return false
	}

	if state.Todos.Len() > 0 && state.Todos.ActiveID == "" {
		if next, ok := state.Todos.NextPending(); ok {
			state.Todos.SetActive(next.ID)
		}
	}

	return true
}

// todoProgress evaluates the latest tool result against the task list and
// applies the analyzer's verdict.
func (g *Graph) todoProgress(ctx context.Context, state *core.AgentState) {
	toolMsg := lastToolMessage(state)
	if toolMsg == nil {
		return
	}

	lastUser := ""
	if msg := state.LastUserMessage(); msg != nil {
		lastUser = msg.Content
	}

	result := g.analyzer.Analyze(ctx, state.Todos, toolMsg.ToolName, toolMsg.Content, lastUser)

	g.cfg.Logger.Debug("todo.progress",
		"completed", result.CompletedTaskID,
		"replan", result.ShouldReplan,
		"next", result.NextTaskID,
		"reasoning", result.Reasoning,
	)

	if result.CompletedTaskID != "" {
		if _, err := state.Todos.UpdateStatus(result.CompletedTaskID, todo.StatusCompleted, toolMsg.Content); err != nil {
			g.cfg.Logger.Warn("todo.progress.complete_failed", "task_id", result.CompletedTaskID, "error", err.Error())
		}

		if state.Todos.ActiveID == result.CompletedTaskID {
			state.Todos.SetActive("")
		}
	}

	if result.ShouldReplan {
		state.SetFlag(core.FlagReplanNeeded, true)
	}

	if result.NextTaskID != "" {
		state.Todos.SetActive(result.NextTaskID)
	}
}

func lastToolMessage(state *core.AgentState) *core.Message {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == core.RoleTool {
			return &state.Messages[i]
		}
	}

	return nil
}

// Model exposes the configured model, for callers that need its metadata.
func (g *Graph) Model() model.Model { return g.cfg.Model }
