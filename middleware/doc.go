// Package middleware defines the lifecycle-hook framework of the engine. A
// middleware opts into any of five hooks (before agent, before model, after
// model, after tools, after agent) by overriding the corresponding Base
// method; each hook observes the current turn state and may contribute a
// partial state patch. The Chain runs middlewares in registration order with
// per-hook fault isolation: a panicking or erroring hook is logged together
// with a state snapshot and skipped, never aborting the turn.
//
// The package also ships the built-in middlewares of the engine: memory
// loading, token tracking, threshold-triggered summarization and PII
// scanning.
package middleware
