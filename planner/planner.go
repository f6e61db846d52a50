package planner

// Strategy selects how planning decisions are made.
type Strategy string

// Planning strategies.
const (
	// StrategyHeuristic uses only rule-based decisions, no model calls.
	StrategyHeuristic Strategy = "heuristic"

	// StrategyModel uses one low-temperature model call per decision and
	// fails over to the heuristic on call or parse failure.
	StrategyModel Strategy = "model"

	// StrategyAuto prefers the model when one is configured, otherwise
	// behaves like StrategyHeuristic.
	StrategyAuto Strategy = "auto"
)

// complexityKeywords is the fixed domain keyword list matched against
// incoming requests. Multi-word entries match as phrases.
var complexityKeywords = []string{
	"create", "build", "develop", "implement", "design", "set up",
	"configure", "deploy", "migrate", "refactor", "write tests",
	"add feature", "fix bug", "optimize", "multiple", "several",
	"various", "different", "step by step", "break down", "plan",
	"project",
}

// failureIndicators mark a tool result as failed. Checked before completion
// indicators; a result containing both counts as a failure.
var failureIndicators = []string{
	"error", "failed", "permission denied", "exception", "denied", "not found",
}

// completionIndicators mark a tool result as evidence the active task is done.
var completionIndicators = []string{
	"completed", "done", "created", "successfully", "finished",
}

// Decision limits.
const (
	// complexityWordThreshold triggers decomposition for long requests.
	complexityWordThreshold = 30

	// complexityKeywordThreshold triggers decomposition and elevates priority.
	complexityKeywordThreshold = 2

	// maxSuggestedTasks caps the tasks a single analysis may propose.
	maxSuggestedTasks = 5

	// planningTemperature and planningMaxTokens bound model-assisted calls.
	planningTemperature = 0.1
	planningMaxTokens   = 500

	// synthesizedTaskMaxLen truncates request text used as task content.
	synthesizedTaskMaxLen = 120
)
