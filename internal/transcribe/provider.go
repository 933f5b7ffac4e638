package transcribe

import "context"

// Class tags the outcome of one segment transcription. Outcomes are
// propagated as data so the coordinator can aggregate them instead of
// unwinding on the first failure.
type Class int

const (
	// Recognized means the engine returned text.
	Recognized Class = iota
	// Unrecognized means the engine explicitly found no speech. Not an
	// error; the segment simply contributes nothing.
	Unrecognized
	// EngineUnavailable means a network or service failure. Logged as a
	// diagnostic, contributes no text, never aborts the other segments.
	EngineUnavailable
)

func (c Class) String() string {
	switch c {
	case Recognized:
		return "recognized"
	case Unrecognized:
		return "unrecognized"
	default:
		return "engine_unavailable"
	}
}

// Outcome is the tagged result of transcribing one segment. Text is set
// only for Recognized; Err only for EngineUnavailable.
type Outcome struct {
	Class Class
	Text  string
	Err   error
}

// Provider is the interface for speech-to-text backends.
type Provider interface {
	Transcribe(ctx context.Context, wav []byte, language string) Outcome
	Name() string
}
