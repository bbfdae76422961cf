package adaprov

import (
	"fmt"

	"github.com/scteam/adaprov/events"
)

// PhaseError wraps the error that aborted a run with the phase it happened
// in.
type PhaseError struct {
	Phase events.Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

func phaseErr(phase events.Phase, err error) *PhaseError {
	return &PhaseError{Phase: phase, Err: err}
}
