// Package speech holds the shared types and sentinel errors for the speech
// capability ports defined in the output and input subpackages.
//
// The ports are deliberately narrow: the questionnaire engine only ever needs
// "say this text and tell me when you are done" and "give me a stream of
// best-guess-so-far transcripts until I stop you". Anything richer (voice
// profiles, diarization, keyword boosting) belongs to the adapter, not the
// port.
package speech

import "errors"

// ErrUnavailable is returned by port implementations when the underlying
// capability is not present — no client connected, no microphone, no output
// device. Callers are expected to degrade gracefully rather than fail:
// a questionnaire continues without read-aloud, a listening window falls
// back to manual input and its timeout.
var ErrUnavailable = errors.New("speech: capability unavailable")

// Transcript is one recognition result for the current listening window.
//
// Text is the cumulative best guess for the whole window, not an incremental
// delta: each Transcript supersedes the previous one wholesale. Consumers
// should replace, never append.
type Transcript struct {
	// Text is the recognised speech content for the window so far.
	Text string

	// Final reports whether the recogniser has committed to this result.
	// Partial (interim) results may still be revised.
	Final bool

	// Confidence is the overall confidence score (0.0–1.0). Zero when the
	// adapter does not report confidence.
	Confidence float64
}
