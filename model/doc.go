// Package model defines the unified chat-model abstraction consumed by the
// orchestration graph, together with a mock implementation for tests. Concrete
// providers live in the model/openai and model/anthropic subpackages; all
// providers expose the same synchronous Invoke contract so the graph never
// branches per vendor.
package model
