// Package jobstore tracks provisioning jobs in memory for the HTTP server.
// Jobs survive for the lifetime of the process; a restart starts clean.
package jobstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/scteam/adaprov"
	"github.com/scteam/adaprov/events"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// maxErrorLen bounds stored error messages so a job view stays readable.
const maxErrorLen = 300

// Job is one tracked provisioning run. All mutation goes through methods;
// readers take a View snapshot.
type Job struct {
	mu sync.Mutex

	id              uuid.UUID
	company         string
	status          Status
	progress        string
	currentPhase    int
	completedPhases []int
	result          *adaprov.ProvisioningResult
	errMsg          string
	source          string
	opportunityID   string
	createdAt       time.Time
	updatedAt       time.Time

	request adaprov.ProvisioningRequest
}

// View is the JSON shape served to clients.
type View struct {
	JobID           string                      `json:"job_id"`
	Status          Status                      `json:"status"`
	CompanyName     string                      `json:"company_name"`
	Progress        string                      `json:"progress,omitempty"`
	CurrentPhase    int                         `json:"current_phase,omitempty"`
	CompletedPhases []int                       `json:"completed_phases"`
	Result          *adaprov.ProvisioningResult `json:"result"`
	Error           string                      `json:"error,omitempty"`
	Source          string                      `json:"source,omitempty"`
	OpportunityID   string                      `json:"opportunity_id,omitempty"`
	CreatedAt       strfmt.DateTime             `json:"created_at"`
	UpdatedAt       strfmt.DateTime             `json:"updated_at"`
}

func (j *Job) ID() uuid.UUID { return j.id }

// Request returns the provisioning request this job was created for.
func (j *Job) Request() adaprov.ProvisioningRequest {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.request
}

func (j *Job) touch() {
	j.updatedAt = time.Now()
}

// Start moves the job into the running state.
func (j *Job) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusRunning
	j.progress = "Starting provisioning..."
	j.touch()
}

// SetProgress records the active phase and a human-readable message.
func (j *Job) SetProgress(phase events.Phase, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentPhase = int(phase)
	if message != "" {
		j.progress = message
	}
	j.touch()
}

// CompletePhase marks one phase done.
func (j *Job) CompletePhase(phase events.Phase) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, done := range j.completedPhases {
		if done == int(phase) {
			return
		}
	}
	j.completedPhases = append(j.completedPhases, int(phase))
	j.touch()
}

// Complete records a successful result.
func (j *Job) Complete(result *adaprov.ProvisioningResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusCompleted
	j.result = result
	j.progress = "Provisioning completed successfully!"
	j.touch()
}

// Fail records the terminal error, sanitized for JSON transport.
func (j *Job) Fail(result *adaprov.ProvisioningResult, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusFailed
	j.result = result
	j.errMsg = sanitizeError(err)
	j.touch()
}

// Snapshot returns a consistent copy for serving.
func (j *Job) Snapshot() View {
	j.mu.Lock()
	defer j.mu.Unlock()
	completed := make([]int, len(j.completedPhases))
	copy(completed, j.completedPhases)
	return View{
		JobID:           j.id.String(),
		Status:          j.status,
		CompanyName:     j.company,
		Progress:        j.progress,
		CurrentPhase:    j.currentPhase,
		CompletedPhases: completed,
		Result:          j.result,
		Error:           j.errMsg,
		Source:          j.source,
		OpportunityID:   j.opportunityID,
		CreatedAt:       strfmt.DateTime(j.createdAt),
		UpdatedAt:       strfmt.DateTime(j.updatedAt),
	}
}

// sanitizeError flattens an error into one bounded line.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	replacer := strings.NewReplacer(
		"\n", " ", "\r", " ", "\t", " ",
		`"`, "'", "`", "'", `\`, "/",
	)
	msg = replacer.Replace(msg)
	if len(msg) > maxErrorLen {
		msg = msg[:maxErrorLen] + "... (truncated)"
	}
	return msg
}

// Store holds all jobs keyed by ID.
type Store struct {
	jobs *haxmap.Map[string, *Job]
}

func New() *Store {
	return &Store{jobs: haxmap.New[string, *Job]()}
}

// Option tags a job with extra metadata at creation.
type Option func(*Job)

// FromSource records where the job originated, e.g. a webhook.
func FromSource(source, opportunityID string) Option {
	return func(j *Job) {
		j.source = source
		j.opportunityID = opportunityID
	}
}

// Create registers a new pending job.
func (s *Store) Create(req adaprov.ProvisioningRequest, options ...Option) *Job {
	now := time.Now()
	job := &Job{
		id:        uuid.Must(uuid.NewV7()),
		company:   req.Company,
		status:    StatusPending,
		request:   req,
		createdAt: now,
		updatedAt: now,
	}
	for _, opt := range options {
		opt(job)
	}
	s.jobs.Set(job.id.String(), job)
	return job
}

// Get looks a job up by ID.
func (s *Store) Get(id string) (*Job, bool) {
	return s.jobs.Get(id)
}

// Delete removes a job; reports whether it existed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.jobs.Get(id); !ok {
		return false
	}
	s.jobs.Del(id)
	return true
}

// List returns snapshots of up to limit jobs, newest first.
func (s *Store) List(limit int) []View {
	var views []View
	s.jobs.ForEach(func(_ string, job *Job) bool {
		views = append(views, job.Snapshot())
		return true
	})
	sort.Slice(views, func(i, j int) bool {
		return time.Time(views[i].CreatedAt).After(time.Time(views[j].CreatedAt))
	})
	if limit > 0 && len(views) > limit {
		views = views[:limit]
	}
	return views
}
