// Package events carries progress notifications out of a provisioning run.
//
// A run moves through a fixed sequence of phases. As it does, it emits
// typed events through a Hook: phase boundaries, fine-grained progress
// inside a phase, warnings for degraded-but-continuing work, and failures.
// Every event carries the run ID and a timestamp so multiple concurrent
// runs can share one sink.
//
// Hooks are synchronous and must not block; anything slow belongs behind a
// channel owned by the hook implementation. Hooks composes several sinks
// into one, so a CLI can render to the console while a server records the
// same events into a job log.
package events
