package transcribe

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/media"
	"github.com/snarg/scribe-engine/internal/metrics"
)

// Fragment is the per-segment transcription result.
type Fragment struct {
	Index int
	Class Class
	Text  string
	Err   error
}

// Coordinator fans segments out to the speech provider with bounded
// concurrency and joins recognized text back in segment order. One bad
// segment never discards progress from the rest of the file.
type Coordinator struct {
	provider Provider
	workers  int
	log      zerolog.Logger
}

// NewCoordinator creates a coordinator running at most workers concurrent
// engine requests.
func NewCoordinator(provider Provider, workers int, log zerolog.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{provider: provider, workers: workers, log: log}
}

// Transcribe processes every segment and returns the space-joined
// transcript of recognized fragments, in ascending segment-index order
// regardless of completion order, along with all fragments for
// diagnostics. An all-failed run yields an empty transcript, not an error.
func (c *Coordinator) Transcribe(ctx context.Context, segments []media.Segment, language string) (string, []Fragment) {
	fragments := make([]Fragment, len(segments))

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	for i, seg := range segments {
		wg.Add(1)
		go func(i int, seg media.Segment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out := c.provider.Transcribe(ctx, seg.WAV, language)
			fragments[i] = Fragment{Index: seg.Index, Class: out.Class, Text: out.Text, Err: out.Err}
			metrics.SegmentOutcomesTotal.WithLabelValues(out.Class.String()).Inc()

			switch out.Class {
			case EngineUnavailable:
				c.log.Warn().Err(out.Err).Int("segment", seg.Index).Msg("speech engine unavailable for segment")
			case Unrecognized:
				c.log.Debug().Int("segment", seg.Index).Msg("no speech found in segment")
			}
		}(i, seg)
	}
	wg.Wait()

	return Join(fragments), fragments
}

// Join concatenates recognized fragments' text with single spaces, in
// ascending index order. Failed fragments contribute nothing; no empty
// placeholder is inserted for them.
func Join(fragments []Fragment) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Class == Recognized && f.Text != "" {
			parts = append(parts, f.Text)
		}
	}
	return strings.Join(parts, " ")
}
