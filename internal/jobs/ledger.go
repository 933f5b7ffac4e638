package jobs

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/metrics"
)

// State is a job's position in the pipeline lifecycle.
type State string

const (
	StatePending      State = "pending"
	StateExtracting   State = "extracting"
	StateSegmenting   State = "segmenting"
	StateTranscribing State = "transcribing"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

var (
	// ErrNotFound is returned for an unknown job ID.
	ErrNotFound = errors.New("job not found")

	// ErrNotReady is returned when a transcript is requested before the
	// job reaches a terminal state.
	ErrNotReady = errors.New("job not ready")

	// ErrInvalidTransition marks an illegal state change. This is a
	// programming error, not a user-facing condition.
	ErrInvalidTransition = errors.New("invalid job transition")

	// ErrAlreadyRunning is returned when a job is created while a
	// non-terminal job exists for the same ID.
	ErrAlreadyRunning = errors.New("job already running")

	// ErrJobFailed wraps the stored pipeline error on download.
	ErrJobFailed = errors.New("job failed")
)

// Job tracks one file's pipeline run from reassembled bytes to transcript.
type Job struct {
	ID         string
	FileName   string
	State      State
	CreatedAt  time.Time
	Transcript string // set only in StateSucceeded
	Error      string // set only in StateFailed

	done chan struct{}
}

// Status is the query-facing snapshot of a job. Transcript and Error are
// exclusively absent while the job is non-terminal.
type Status struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	State      State     `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
	Transcript string    `json:"transcript,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Ledger is the process-wide job store. It only records state and guards
// transitions; the orchestrator drives them.
type Ledger struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	log  zerolog.Logger
}

// NewLedger creates an empty ledger.
func NewLedger(log zerolog.Logger) *Ledger {
	return &Ledger{jobs: map[string]*Job{}, log: log}
}

// Create registers a new Pending job. A terminal job under the same ID is
// replaced; a running one is protected by ErrAlreadyRunning.
func (l *Ledger) Create(id, fileName string) (*Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.jobs[id]; ok && !existing.State.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, id)
	}

	j := &Job{
		ID:        id,
		FileName:  fileName,
		State:     StatePending,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
	l.jobs[id] = j
	l.log.Info().Str("job_id", id).Str("file", fileName).Msg("job created")
	return j, nil
}

// Transition advances a job to a non-terminal state. Terminal states are
// entered through Succeed/Fail so their payloads are set atomically with
// the state change.
func (l *Ledger) Transition(id string, to State) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, ok := l.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !validTransition(j.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, to)
	}
	j.State = to
	l.log.Debug().Str("job_id", id).Str("state", string(to)).Msg("job state advanced")
	return nil
}

// Succeed moves a job to its terminal Succeeded state with its transcript.
// An empty transcript is a legitimate success: a file with no recognizable
// speech still completes.
func (l *Ledger) Succeed(id, transcript string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, ok := l.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !validTransition(j.State, StateSucceeded) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, StateSucceeded)
	}
	j.State = StateSucceeded
	j.Transcript = transcript
	close(j.done)
	metrics.JobsTotal.WithLabelValues(string(StateSucceeded)).Inc()
	l.log.Info().Str("job_id", id).Int("transcript_len", len(transcript)).Msg("job succeeded")
	return nil
}

// Fail moves a job to its terminal Failed state, recording the cause.
func (l *Ledger) Fail(id string, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	j, ok := l.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !validTransition(j.State, StateFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.State, StateFailed)
	}
	j.State = StateFailed
	j.Error = cause.Error()
	close(j.done)
	metrics.JobsTotal.WithLabelValues(string(StateFailed)).Inc()
	l.log.Error().Str("job_id", id).Str("cause", j.Error).Msg("job failed")
	return nil
}

// Status returns a snapshot of the job.
func (l *Ledger) Status(id string) (Status, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	j, ok := l.jobs[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return Status{
		ID:         j.ID,
		FileName:   j.FileName,
		State:      j.State,
		CreatedAt:  j.CreatedAt,
		Transcript: j.Transcript,
		Error:      j.Error,
	}, nil
}

// Download returns the transcript bytes and the originating file name.
// Non-terminal jobs yield ErrNotReady; failed jobs yield the stored error
// wrapped in ErrJobFailed.
func (l *Ledger) Download(id string) ([]byte, string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	j, ok := l.jobs[id]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch j.State {
	case StateSucceeded:
		return []byte(j.Transcript), j.FileName, nil
	case StateFailed:
		return nil, "", fmt.Errorf("%w: %s", ErrJobFailed, j.Error)
	default:
		return nil, "", fmt.Errorf("%w: job is %s", ErrNotReady, j.State)
	}
}

// Done exposes the job's completion channel so callers can observe the
// background task instead of losing it.
func (l *Ledger) Done(id string) (<-chan struct{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	j, ok := l.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return j.done, nil
}

// Counts returns the number of jobs per state.
func (l *Ledger) Counts() map[State]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := map[State]int{}
	for _, j := range l.jobs {
		counts[j.State]++
	}
	return counts
}

// validTransition enforces the allowed job state machine edges:
// Pending -> Extracting -> Segmenting -> Transcribing -> Succeeded, with a
// side transition to Failed from any non-terminal state.
func validTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	switch from {
	case StatePending:
		return to == StateExtracting
	case StateExtracting:
		return to == StateSegmenting
	case StateSegmenting:
		return to == StateTranscribing
	case StateTranscribing:
		return to == StateSucceeded
	default:
		return false
	}
}
