package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/media"
	"github.com/snarg/scribe-engine/internal/metrics"
	"github.com/snarg/scribe-engine/internal/transcribe"
)

// Options configures the pipeline orchestrator.
type Options struct {
	DataDir        string
	SegmentSeconds int
	Language       string
	JobTimeout     time.Duration
}

// Orchestrator drives one job end to end off the request path:
// classify, extract (containers only), segment, transcribe, persist.
// Any stage failure moves the job to Failed and stops the pipeline.
type Orchestrator struct {
	ledger      *Ledger
	extractor   *media.Extractor
	coordinator *transcribe.Coordinator
	opts        Options
	log         zerolog.Logger
}

// NewOrchestrator creates a pipeline orchestrator.
func NewOrchestrator(ledger *Ledger, extractor *media.Extractor, coordinator *transcribe.Coordinator, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.SegmentSeconds <= 0 {
		opts.SegmentSeconds = 30
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Minute
	}
	return &Orchestrator{
		ledger:      ledger,
		extractor:   extractor,
		coordinator: coordinator,
		opts:        opts,
		log:         log,
	}
}

// Launch starts the pipeline for a freshly created job in its own
// goroutine and returns immediately. The job's terminal state is
// observable through the ledger's Done channel.
func (o *Orchestrator) Launch(job *Job, payload []byte) {
	go o.run(job, payload)
}

func (o *Orchestrator) run(job *Job, payload []byte) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), o.opts.JobTimeout)
	defer cancel()

	log := o.log.With().Str("job_id", job.ID).Logger()

	// Per-job workspace for extraction temp files, released on every exit
	// path.
	workDir, err := os.MkdirTemp(o.opts.DataDir, "job-*")
	if err != nil {
		o.fail(ctx, job.ID, fmt.Errorf("create job workspace: %w", err))
		return
	}
	defer os.RemoveAll(workDir)

	// Stage: extraction. Raw audio passes through untouched.
	if err := o.ledger.Transition(job.ID, StateExtracting); err != nil {
		log.Error().Err(err).Msg("transition rejected")
		return
	}
	audio := payload
	if media.Classify(job.FileName) == media.Container {
		audio, err = o.extractor.Extract(ctx, payload, workDir)
		if err != nil {
			o.fail(ctx, job.ID, fmt.Errorf("audio extraction: %w", err))
			return
		}
	}

	// Stage: segmentation.
	if err := o.ledger.Transition(job.ID, StateSegmenting); err != nil {
		log.Error().Err(err).Msg("transition rejected")
		return
	}
	segments, err := media.Split(audio, o.opts.SegmentSeconds)
	if err != nil {
		o.fail(ctx, job.ID, fmt.Errorf("audio segmentation: %w", err))
		return
	}
	log.Debug().Int("segments", len(segments)).Msg("audio segmented")

	// Stage: transcription. Per-segment failures are isolated inside the
	// coordinator; only a timeout can fail the job here.
	if err := o.ledger.Transition(job.ID, StateTranscribing); err != nil {
		log.Error().Err(err).Msg("transition rejected")
		return
	}
	transcript, fragments := o.coordinator.Transcribe(ctx, segments, o.opts.Language)
	if err := ctx.Err(); err != nil {
		o.fail(ctx, job.ID, err)
		return
	}
	for _, f := range fragments {
		if f.Class == transcribe.EngineUnavailable {
			log.Warn().Int("segment", f.Index).Err(f.Err).Msg("segment lost to engine failure")
		}
	}

	// Stage: persistence.
	if err := o.persist(job.ID, transcript); err != nil {
		o.fail(ctx, job.ID, err)
		return
	}
	if err := o.ledger.Succeed(job.ID, transcript); err != nil {
		log.Error().Err(err).Msg("transition rejected")
		return
	}
	log.Info().
		Int("segments", len(segments)).
		Dur("elapsed", time.Since(start)).
		Msg("pipeline complete")
}

// persist writes the transcript to disk alongside the in-memory ledger
// copy.
func (o *Orchestrator) persist(jobID, transcript string) error {
	dir := filepath.Join(o.opts.DataDir, "transcripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}
	path := filepath.Join(dir, jobID+".txt")
	if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}
	return nil
}

// fail records the stage error, translating a deadline hit into a timeout
// diagnostic.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) {
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cause = fmt.Errorf("job timeout after %s: %v", o.opts.JobTimeout, cause)
	}
	if err := o.ledger.Fail(jobID, cause); err != nil {
		o.log.Error().Err(err).Str("job_id", jobID).Msg("failed to record job failure")
	}
}
