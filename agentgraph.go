// Package agentgraph provides a high-level façade over the graph orchestration
// engine. Most applications interact with this package by:
//  1. Creating an AgentGraph via New() with a model and optional tools
//  2. Running conversational turns with Invoke
//  3. Reading the final assistant reply and turn telemetry from the result
//
// The façade delegates orchestration to graph.Graph while keeping setup
// ergonomics concise. All defaults are safe for local development and testing;
// production deployments typically supply a durable checkpointer and a
// structured logger.
package agentgraph

import (
	"context"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
)

// AgentGraph is the high-level façade aggregating the compiled graph.
type AgentGraph struct {
	graph *graph.Graph
}

// New compiles an AgentGraph from the given configuration. Unset fields fall
// back to the documented graph defaults.
func New(cfg graph.Config, optFns ...func(c *graph.Config)) (*AgentGraph, error) {
	for _, fn := range optFns {
		fn(&cfg)
	}

	g, err := graph.New(cfg)
	if err != nil {
		return nil, err
	}

	return &AgentGraph{graph: g}, nil
}

// Invoke runs one conversational turn and returns the terminal state.
func (a *AgentGraph) Invoke(ctx context.Context, conversationID, input string) (*core.AgentState, error) {
	return a.graph.Run(ctx, conversationID, input)
}

// Reply runs one turn and returns only the final assistant text.
func (a *AgentGraph) Reply(ctx context.Context, conversationID, input string) (string, error) {
	state, err := a.graph.Run(ctx, conversationID, input)
	if err != nil {
		return "", err
	}

	if msg := state.LastAssistantMessage(); msg != nil {
		return msg.Content, nil
	}

	return "", nil
}
