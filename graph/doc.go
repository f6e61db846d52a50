// Package graph implements the orchestration state machine that drives one
// conversational turn: deciding when to call the model, when to execute
// tools, when to compress context, and how the task subsystem decomposes,
// tracks and re-plans work. The loop is bounded by a hard model-call ceiling
// and always reaches its terminal state; model failures degrade to a
// fallback assistant message and tool failures surface as error-annotated
// tool results instead of aborting the turn.
//
// A turn executes as a sequential, single-threaded pipeline over one
// AgentState. Concurrency exists only across turns and, as an optimization,
// within a single tool batch, whose results are still returned in request
// order.
package graph
