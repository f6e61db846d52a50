// Package core provides the foundational domain types used by AgentGraph. It
// defines the core abstractions for:
//
//   - Messages (role-tagged conversation entries with tool-call requests)
//   - AgentState (the mutable context of a single turn)
//   - Patches (partial state updates contributed by middleware and graph nodes)
//   - Token usage accounting
//
// The package intentionally keeps implementation concerns (model providers,
// graph orchestration, concrete tools) out of scope. An AgentState is owned
// exclusively by one turn and is never shared across concurrent turns, so its
// methods require no locking.
package core
