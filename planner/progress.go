package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/todo"
)

// ProgressResult is the outcome of evaluating a tool result against the
// current task list.
type ProgressResult struct {
	CompletedTaskID string `json:"completed_task_id,omitempty"`
	ShouldReplan    bool   `json:"should_replan"`
	NextTaskID      string `json:"next_task_id,omitempty"`
	Reasoning       string `json:"reasoning"`
}

// ProgressAnalyzerOptions configure a ProgressAnalyzer.
type ProgressAnalyzerOptions struct {
	Strategy Strategy
	Model    model.Model
	Logger   logging.Logger
}

// ProgressAnalyzer decides, after each tool batch, whether the active task
// was completed, whether a replan is needed, and which task to pick up next.
type ProgressAnalyzer struct {
	strategy Strategy
	model    model.Model
	logger   logging.Logger
}

// NewProgressAnalyzer creates an analyzer. The default strategy is auto.
func NewProgressAnalyzer(optFns ...func(o *ProgressAnalyzerOptions)) *ProgressAnalyzer {
	opts := ProgressAnalyzerOptions{
		Strategy: StrategyAuto,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &ProgressAnalyzer{
		strategy: opts.Strategy,
		model:    opts.Model,
		logger:   opts.Logger,
	}
}

// Analyze evaluates the tool result. Decision order:
//
//  1. No tasks exist: no-op.
//  2. No active task: select the next pending one.
//  3. Active id no longer resolvable: request a replan.
//  4. Otherwise judge the result text against the active task; failure
//     evidence wins over completion evidence when both are present.
func (a *ProgressAnalyzer) Analyze(ctx context.Context, list *todo.List, toolName, toolResult, lastUserRequest string) ProgressResult {
	if list == nil || list.Len() == 0 {
		return ProgressResult{Reasoning: "no tasks exist"}
	}

	if list.ActiveID == "" {
		if next, ok := list.NextPending(); ok {
			return ProgressResult{
				NextTaskID: next.ID,
				Reasoning:  "no active task, selecting next pending",
			}
		}

		return ProgressResult{Reasoning: "no active task and nothing pending"}
	}

	active, ok := list.Active()
	if !ok {
		return ProgressResult{
			ShouldReplan: true,
			Reasoning:    fmt.Sprintf("active task %s no longer exists", list.ActiveID),
		}
	}

	if a.useModel() {
		if result, err := a.evaluateWithModel(ctx, active, toolName, toolResult, lastUserRequest); err == nil {
			return result
		} else {
			a.logger.Warn("planner.progress.model_failed", "error", err.Error())
		}
	}

	return a.evaluateHeuristic(active, toolResult)
}

func (a *ProgressAnalyzer) useModel() bool {
	switch a.strategy {
	case StrategyModel, StrategyAuto:
		return a.model != nil
	default:
		return false
	}
}

// evaluateHeuristic judges the tool result by indicator keywords. Failure
// indicators are checked first and win when both kinds are present.
func (a *ProgressAnalyzer) evaluateHeuristic(active todo.Task, toolResult string) ProgressResult {
	lowered := strings.ToLower(toolResult)

	for _, indicator := range failureIndicators {
		if strings.Contains(lowered, indicator) {
			return ProgressResult{
				ShouldReplan: true,
				Reasoning:    fmt.Sprintf("tool result contains failure indicator %q", indicator),
			}
		}
	}

	for _, indicator := range completionIndicators {
		if strings.Contains(lowered, indicator) {
			return ProgressResult{
				CompletedTaskID: active.ID,
				Reasoning:       fmt.Sprintf("tool result contains completion indicator %q", indicator),
			}
		}
	}

	return ProgressResult{Reasoning: "task assumed still in progress"}
}

const progressInstruction = `You judge whether a tool result shows the active task was completed or whether the plan should change.
Respond with JSON only, in this shape:
{"task_completed": bool, "should_replan": bool, "reasoning": "short explanation"}
Replan when the tool result shows a failure that invalidates the current approach.`

func (a *ProgressAnalyzer) evaluateWithModel(ctx context.Context, active todo.Task, toolName, toolResult, lastUserRequest string) (ProgressResult, error) {
	temperature := planningTemperature

	prompt := fmt.Sprintf(
		"Active task: %s\nUser request: %s\nTool: %s\nTool result:\n%s",
		active.Content, lastUserRequest, toolName, truncate(toolResult, 2000),
	)

	resp, err := a.model.Invoke(ctx, model.Request{
		System:      progressInstruction,
		Messages:    []core.Message{core.NewUserMessage(prompt)},
		Temperature: &temperature,
		MaxTokens:   planningMaxTokens,
	})
	if err != nil {
		return ProgressResult{}, fmt.Errorf("progress model call: %w", err)
	}

	var parsed struct {
		TaskCompleted bool   `json:"task_completed"`
		ShouldReplan  bool   `json:"should_replan"`
		Reasoning     string `json:"reasoning"`
	}

	if err := util.DecodeLooseJSON(resp.Content, &parsed); err != nil {
		return ProgressResult{}, fmt.Errorf("progress output parse: %w", err)
	}

	result := ProgressResult{
		ShouldReplan: parsed.ShouldReplan,
		Reasoning:    parsed.Reasoning,
	}

	if parsed.TaskCompleted && !parsed.ShouldReplan {
		result.CompletedTaskID = active.ID
	}

	return result, nil
}
