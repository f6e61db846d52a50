// Package todo implements the in-memory task list used to decompose and
// track multi-step work within a single turn. A List is an ordered
// collection of Tasks with an optional active task, priority-aware next-task
// selection, dependency resolution and parent auto-completion. The list's
// lifetime is exactly one turn; cross-turn persistence is the caller's
// responsibility.
package todo
