// Package planner contains the decision components of the task subsystem:
// the ComplexityDetector, which decides whether an incoming request should be
// decomposed into a task list, and the ProgressAnalyzer, which evaluates tool
// results against the active task after each tool batch. Both offer a pure
// heuristic strategy, a model-assisted strategy with permissive structured
// output parsing, and an auto policy that falls back to the heuristic when
// the model call or its output parsing fails.
package planner
