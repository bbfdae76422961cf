package events

import "context"

// Hook receives progress events from a provisioning run. Implementations
// must be safe for concurrent use and must not block; the run calls them
// inline.
type Hook interface {
	OnPhaseStarted(context.Context, PhaseStarted)
	OnPhaseCompleted(context.Context, PhaseCompleted)
	OnProgress(context.Context, Progress)
	OnWarning(context.Context, Warning)
	OnError(context.Context, Failure)
}

// NoopHook discards all events. It is the default when no hook is
// configured.
type NoopHook struct{}

func (NoopHook) OnPhaseStarted(context.Context, PhaseStarted)     {}
func (NoopHook) OnPhaseCompleted(context.Context, PhaseCompleted) {}
func (NoopHook) OnProgress(context.Context, Progress)             {}
func (NoopHook) OnWarning(context.Context, Warning)               {}
func (NoopHook) OnError(context.Context, Failure)                 {}

// Hooks fans every event out to each member in order.
type Hooks []Hook

func (h Hooks) OnPhaseStarted(ctx context.Context, e PhaseStarted) {
	for _, hook := range h {
		hook.OnPhaseStarted(ctx, e)
	}
}

func (h Hooks) OnPhaseCompleted(ctx context.Context, e PhaseCompleted) {
	for _, hook := range h {
		hook.OnPhaseCompleted(ctx, e)
	}
}

func (h Hooks) OnProgress(ctx context.Context, e Progress) {
	for _, hook := range h {
		hook.OnProgress(ctx, e)
	}
}

func (h Hooks) OnWarning(ctx context.Context, e Warning) {
	for _, hook := range h {
		hook.OnWarning(ctx, e)
	}
}

func (h Hooks) OnError(ctx context.Context, e Failure) {
	for _, hook := range h {
		hook.OnError(ctx, e)
	}
}
