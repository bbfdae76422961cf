package events

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// Phase identifies one stage of the provisioning sequence. Phases always
// run in declared order; a failed phase aborts the run unless the
// orchestrator downgrades it to a warning.
type Phase int

const (
	PhaseIdentity Phase = iota + 1
	PhaseClone
	PhaseCredential
	PhaseMockEndpoints
	PhaseBrowser
	PhaseKnowledge
	PhaseConversations
)

var phaseNames = map[Phase]string{
	PhaseIdentity:      "identity",
	PhaseClone:         "clone",
	PhaseCredential:    "credential",
	PhaseMockEndpoints: "mock endpoints",
	PhaseBrowser:       "browser tasks",
	PhaseKnowledge:     "knowledge",
	PhaseConversations: "conversations",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// PhaseCount is the number of phases in a full run, used for progress
// reporting.
const PhaseCount = int(PhaseConversations)

// PhaseStarted marks the beginning of a phase.
type PhaseStarted struct {
	RunID     uuid.UUID       `json:"run_id"`
	Phase     Phase           `json:"phase"`
	Message   string          `json:"message,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// PhaseCompleted marks the successful end of a phase.
type PhaseCompleted struct {
	RunID     uuid.UUID       `json:"run_id"`
	Phase     Phase           `json:"phase"`
	Message   string          `json:"message,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Progress reports incremental work inside a phase, such as conversations
// seeded so far out of the requested total.
type Progress struct {
	RunID     uuid.UUID       `json:"run_id"`
	Phase     Phase           `json:"phase"`
	Message   string          `json:"message"`
	Current   int             `json:"current"`
	Total     int             `json:"total"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Warning reports work that degraded but did not stop the run, like a
// shortfall of generated questions or a skipped website import.
type Warning struct {
	RunID     uuid.UUID       `json:"run_id"`
	Phase     Phase           `json:"phase"`
	Message   string          `json:"message"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Failure reports the error that aborted a run.
type Failure struct {
	RunID     uuid.UUID       `json:"run_id"`
	Phase     Phase           `json:"phase"`
	Err       error           `json:"-"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

func now() strfmt.DateTime {
	return strfmt.DateTime(time.Now())
}

// NewPhaseStarted stamps a phase-start event for the given run.
func NewPhaseStarted(runID uuid.UUID, phase Phase, message string) PhaseStarted {
	return PhaseStarted{RunID: runID, Phase: phase, Message: message, Timestamp: now()}
}

// NewPhaseCompleted stamps a phase-completion event for the given run.
func NewPhaseCompleted(runID uuid.UUID, phase Phase, message string) PhaseCompleted {
	return PhaseCompleted{RunID: runID, Phase: phase, Message: message, Timestamp: now()}
}

// NewProgress stamps a progress event for work inside a phase.
func NewProgress(runID uuid.UUID, phase Phase, message string, current, total int) Progress {
	return Progress{RunID: runID, Phase: phase, Message: message, Current: current, Total: total, Timestamp: now()}
}

// NewWarning stamps a warning event.
func NewWarning(runID uuid.UUID, phase Phase, message string) Warning {
	return Warning{RunID: runID, Phase: phase, Message: message, Timestamp: now()}
}

// NewFailure stamps a failure event.
func NewFailure(runID uuid.UUID, phase Phase, err error) Failure {
	return Failure{RunID: runID, Phase: phase, Err: err, Timestamp: now()}
}
