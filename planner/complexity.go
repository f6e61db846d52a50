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

// SuggestedTask is one task proposed by complexity analysis.
type SuggestedTask struct {
	Content  string        `json:"content"`
	Priority todo.Priority `json:"priority"`
}

// ComplexityResult is the outcome of analyzing one incoming request.
type ComplexityResult struct {
	NeedsList      bool            `json:"needs_task_list"`
	Reasoning      string          `json:"reasoning"`
	SuggestedTasks []SuggestedTask `json:"suggested_tasks"`
}

// ComplexityDetectorOptions configure a ComplexityDetector.
type ComplexityDetectorOptions struct {
	Strategy Strategy
	Model    model.Model // Required for StrategyModel, optional for StrategyAuto
	Logger   logging.Logger
}

// ComplexityDetector decides whether an incoming request should be decomposed
// into a task list. It never double-plans: any existing task short-circuits
// the analysis to a negative result.
type ComplexityDetector struct {
	strategy Strategy
	model    model.Model
	logger   logging.Logger
}

// NewComplexityDetector creates a detector. The default strategy is auto.
func NewComplexityDetector(optFns ...func(o *ComplexityDetectorOptions)) *ComplexityDetector {
	opts := ComplexityDetectorOptions{
		Strategy: StrategyAuto,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &ComplexityDetector{
		strategy: opts.Strategy,
		model:    opts.Model,
		logger:   opts.Logger,
	}
}

// Analyze evaluates a request. If existingTaskCount is positive the result is
// always negative, regardless of request content.
func (d *ComplexityDetector) Analyze(ctx context.Context, request string, existingTaskCount int) ComplexityResult {
	if existingTaskCount > 0 {
		return ComplexityResult{
			NeedsList: false,
			Reasoning: fmt.Sprintf("%d task(s) already exist, not re-planning", existingTaskCount),
		}
	}

	if d.useModel() {
		if result, err := d.analyzeWithModel(ctx, request); err == nil {
			return result
		} else {
			d.logger.Warn("planner.complexity.model_failed", "error", err.Error())
		}
	}

	return d.analyzeHeuristic(request)
}

func (d *ComplexityDetector) useModel() bool {
	switch d.strategy {
	case StrategyModel:
		return d.model != nil
	case StrategyAuto:
		return d.model != nil
	default:
		return false
	}
}

// analyzeHeuristic applies the rule-based fast path: long requests or
// requests matching at least two domain keywords get a single synthesized
// task, with priority elevated on keyword evidence.
func (d *ComplexityDetector) analyzeHeuristic(request string) ComplexityResult {
	wordCount := len(strings.Fields(request))
	matches := countKeywordMatches(request)

	needsList := wordCount >= complexityWordThreshold || matches >= complexityKeywordThreshold
	if !needsList {
		return ComplexityResult{
			NeedsList: false,
			Reasoning: fmt.Sprintf("simple request (%d words, %d keyword matches)", wordCount, matches),
		}
	}

	priority := todo.PriorityMedium
	if matches >= complexityKeywordThreshold {
		priority = todo.PriorityHigh
	}

	return ComplexityResult{
		NeedsList: true,
		Reasoning: fmt.Sprintf("complex request (%d words, %d keyword matches)", wordCount, matches),
		SuggestedTasks: []SuggestedTask{{
			Content:  truncate(request, synthesizedTaskMaxLen),
			Priority: priority,
		}},
	}
}

const complexityInstruction = `You analyze whether a user request needs to be broken down into a task list.
Respond with JSON only, in this shape:
{"needs_task_list": bool, "reasoning": "short explanation", "suggested_tasks": [{"content": "task description", "priority": "low|medium|high|critical"}]}
Suggest at most 5 tasks. Simple questions and single-step requests need no task list.`

// analyzeWithModel performs one low-temperature, token-capped invocation and
// parses the result permissively. Any call or parse failure is returned so
// the caller can fall back to the heuristic.
func (d *ComplexityDetector) analyzeWithModel(ctx context.Context, request string) (ComplexityResult, error) {
	temperature := planningTemperature

	resp, err := d.model.Invoke(ctx, model.Request{
		System:      complexityInstruction,
		Messages:    []core.Message{core.NewUserMessage(request)},
		Temperature: &temperature,
		MaxTokens:   planningMaxTokens,
	})
	if err != nil {
		return ComplexityResult{}, fmt.Errorf("complexity model call: %w", err)
	}

	var parsed struct {
		NeedsList      bool   `json:"needs_task_list"`
		Reasoning      string `json:"reasoning"`
		SuggestedTasks []struct {
			Content  string `json:"content"`
			Priority string `json:"priority"`
		} `json:"suggested_tasks"`
	}

	if err := util.DecodeLooseJSON(resp.Content, &parsed); err != nil {
		return ComplexityResult{}, fmt.Errorf("complexity output parse: %w", err)
	}

	result := ComplexityResult{
		NeedsList: parsed.NeedsList,
		Reasoning: parsed.Reasoning,
	}

	for _, st := range parsed.SuggestedTasks {
		if len(result.SuggestedTasks) >= maxSuggestedTasks {
			break
		}

		if st.Content == "" {
			continue
		}

		result.SuggestedTasks = append(result.SuggestedTasks, SuggestedTask{
			Content:  st.Content,
			Priority: todo.ParsePriority(st.Priority),
		})
	}

	return result, nil
}

// countKeywordMatches counts distinct keyword/phrase hits in the request.
func countKeywordMatches(request string) int {
	lowered := strings.ToLower(request)

	matches := 0
	for _, keyword := range complexityKeywords {
		if strings.Contains(lowered, keyword) {
			matches++
		}
	}

	return matches
}

// truncate shortens s to at most maxLen runes, never splitting a rune.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen]) + "..."
}
