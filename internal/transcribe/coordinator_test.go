package transcribe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/media"
)

// fakeProvider returns canned outcomes keyed by the segment's first byte.
type fakeProvider struct {
	outcomes map[byte]Outcome
	calls    atomic.Int64
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Transcribe(ctx context.Context, wav []byte, language string) Outcome {
	f.calls.Add(1)
	if len(wav) == 0 {
		return Outcome{Class: Unrecognized}
	}
	return f.outcomes[wav[0]]
}

func segmentsFromBytes(keys ...byte) []media.Segment {
	segs := make([]media.Segment, len(keys))
	for i, k := range keys {
		segs[i] = media.Segment{Index: i, WAV: []byte{k}}
	}
	return segs
}

func TestCoordinator_JoinsInIndexOrder(t *testing.T) {
	p := &fakeProvider{outcomes: map[byte]Outcome{
		0: {Class: Recognized, Text: "a"},
		1: {Class: Recognized, Text: "b"},
		2: {Class: Recognized, Text: "c"},
		3: {Class: Recognized, Text: "d"},
	}}
	c := NewCoordinator(p, 4, zerolog.Nop())

	// With 4 workers, completion order is nondeterministic; result order
	// must not be.
	for trial := 0; trial < 20; trial++ {
		text, frags := c.Transcribe(context.Background(), segmentsFromBytes(0, 1, 2, 3), "en")
		if text != "a b c d" {
			t.Fatalf("transcript = %q, want %q", text, "a b c d")
		}
		if len(frags) != 4 {
			t.Fatalf("got %d fragments", len(frags))
		}
	}
}

func TestCoordinator_SkipsFailedSegments(t *testing.T) {
	p := &fakeProvider{outcomes: map[byte]Outcome{
		0: {Class: Recognized, Text: "a"},
		1: {Class: Unrecognized},
		2: {Class: Recognized, Text: "b"},
		3: {Class: Recognized, Text: "c"},
	}}
	c := NewCoordinator(p, 2, zerolog.Nop())

	text, frags := c.Transcribe(context.Background(), segmentsFromBytes(0, 1, 2, 3), "en")
	if text != "a b c" {
		t.Errorf("transcript = %q, want %q", text, "a b c")
	}
	if frags[1].Class != Unrecognized {
		t.Errorf("fragment 1 class = %v", frags[1].Class)
	}
}

func TestCoordinator_UnavailableDoesNotAbort(t *testing.T) {
	p := &fakeProvider{outcomes: map[byte]Outcome{
		0: {Class: EngineUnavailable, Err: errors.New("connection refused")},
		1: {Class: Recognized, Text: "still here"},
	}}
	c := NewCoordinator(p, 1, zerolog.Nop())

	text, _ := c.Transcribe(context.Background(), segmentsFromBytes(0, 1), "en")
	if text != "still here" {
		t.Errorf("transcript = %q", text)
	}
	if p.calls.Load() != 2 {
		t.Errorf("provider called %d times, want 2 (no early abort)", p.calls.Load())
	}
}

func TestCoordinator_AllFailedYieldsEmptyTranscript(t *testing.T) {
	p := &fakeProvider{outcomes: map[byte]Outcome{
		0: {Class: Unrecognized},
		1: {Class: EngineUnavailable, Err: errors.New("down")},
	}}
	c := NewCoordinator(p, 2, zerolog.Nop())

	text, _ := c.Transcribe(context.Background(), segmentsFromBytes(0, 1), "en")
	if text != "" {
		t.Errorf("transcript = %q, want empty", text)
	}
}

func TestCoordinator_NoSegments(t *testing.T) {
	p := &fakeProvider{}
	c := NewCoordinator(p, 2, zerolog.Nop())

	text, frags := c.Transcribe(context.Background(), nil, "en")
	if text != "" || len(frags) != 0 {
		t.Errorf("empty input should yield empty output, got %q / %d fragments", text, len(frags))
	}
	if p.calls.Load() != 0 {
		t.Errorf("provider should not be called for zero segments")
	}
}
