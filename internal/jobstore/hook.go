package jobstore

import (
	"context"
	"fmt"

	"github.com/scteam/adaprov/events"
)

// Hook mirrors run progress into a job so clients polling the job API see
// phase transitions as they happen.
type Hook struct {
	job *Job
}

func NewHook(job *Job) *Hook {
	return &Hook{job: job}
}

func (h *Hook) OnPhaseStarted(_ context.Context, e events.PhaseStarted) {
	msg := e.Phase.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	h.job.SetProgress(e.Phase, msg)
}

func (h *Hook) OnPhaseCompleted(_ context.Context, e events.PhaseCompleted) {
	h.job.CompletePhase(e.Phase)
}

func (h *Hook) OnProgress(_ context.Context, e events.Progress) {
	h.job.SetProgress(e.Phase, fmt.Sprintf("%s (%d/%d)", e.Message, e.Current, e.Total))
}

func (h *Hook) OnWarning(_ context.Context, e events.Warning) {
	h.job.SetProgress(e.Phase, "warning: "+e.Message)
}

func (h *Hook) OnError(_ context.Context, e events.Failure) {
	h.job.SetProgress(e.Phase, fmt.Sprintf("failed: %v", e.Err))
}
