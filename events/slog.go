package events

import (
	"context"
	"log/slog"
)

// SlogHook records events through a structured logger, for servers where
// the console renderer would be noise.
type SlogHook struct {
	log *slog.Logger
}

func NewSlogHook(log *slog.Logger) *SlogHook {
	if log == nil {
		log = slog.Default()
	}
	return &SlogHook{log: log}
}

func (s *SlogHook) OnPhaseStarted(ctx context.Context, e PhaseStarted) {
	s.log.InfoContext(ctx, "phase started", "run_id", e.RunID, "phase", e.Phase.String(), "message", e.Message)
}

func (s *SlogHook) OnPhaseCompleted(ctx context.Context, e PhaseCompleted) {
	s.log.InfoContext(ctx, "phase completed", "run_id", e.RunID, "phase", e.Phase.String(), "message", e.Message)
}

func (s *SlogHook) OnProgress(ctx context.Context, e Progress) {
	s.log.DebugContext(ctx, "progress", "run_id", e.RunID, "phase", e.Phase.String(),
		"message", e.Message, "current", e.Current, "total", e.Total)
}

func (s *SlogHook) OnWarning(ctx context.Context, e Warning) {
	s.log.WarnContext(ctx, "provisioning warning", "run_id", e.RunID, "phase", e.Phase.String(), "message", e.Message)
}

func (s *SlogHook) OnError(ctx context.Context, e Failure) {
	s.log.ErrorContext(ctx, "provisioning failed", "run_id", e.RunID, "phase", e.Phase.String(), "error", e.Err)
}
