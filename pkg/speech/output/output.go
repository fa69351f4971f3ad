// Package output defines the Speaker interface for text-to-speech backends.
//
// A Speaker wraps whatever actually produces audible speech — a browser's
// speechSynthesis engine reached over the session gateway, or a test double —
// behind a uniform asynchronous, cancellable contract. The device's speech
// channel is a single global resource: starting a new utterance anywhere
// preempts the previous one, so completion is best-effort delivery, never a
// guarantee that the text was heard in full.
//
// Implementations must be safe for concurrent use.
package output

import "context"

// Speaker is the abstraction over any speech output backend.
type Speaker interface {
	// Speak begins speaking text and returns a signal channel that is closed
	// when the utterance completes or is preempted. At most one utterance is
	// active at a time: calling Speak again closes the previous utterance's
	// signal channel first (last-writer-wins). Preemption and completion are
	// indistinguishable to the caller.
	//
	// Returns speech.ErrUnavailable when no output device is reachable; the
	// caller should treat the utterance as instantly complete and move on.
	// A cancelled ctx aborts the utterance and closes the signal channel.
	Speak(ctx context.Context, text string) (<-chan struct{}, error)

	// Cancel silences any in-flight utterance and closes its signal channel.
	// Safe to call from any state, any number of times, including when
	// nothing is speaking.
	Cancel()
}
