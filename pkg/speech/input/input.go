// Package input defines the Recognizer interface for speech-to-text backends.
//
// A Recognizer opens one Stream per listening window. The stream emits
// cumulative best-guess-so-far transcripts (see speech.Transcript) and is
// torn down with Stop when the window closes — on timeout, early skip, or
// manual submission. A stopped stream must never deliver another result;
// this is what protects a later question's buffers from a stale recognition
// callback.
//
// Implementations must be safe for concurrent use.
package input

import (
	"context"

	"github.com/pulseaid/pulseaid/pkg/speech"
)

// StreamConfig describes the audio format and recognition hints for a new
// listening window.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz for adapters that consume
	// raw PCM (e.g. 16000). Ignored by adapters that receive text directly.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g. "en-US").
	// Empty lets the adapter use its default.
	Language string
}

// Stream is one open listening window. Callers must call Stop when the
// window ends; failing to do so may leak goroutines inside the adapter.
type Stream interface {
	// SendAudio delivers a chunk of raw PCM audio to the recogniser. Adapters
	// that do their own capture (browser relay) accept and discard chunks.
	// Calling SendAudio after Stop returns an error.
	SendAudio(chunk []byte) error

	// Results returns a read-only channel of cumulative transcripts for this
	// window. The channel is closed when the stream stops. Each value
	// supersedes the previous one; consumers replace, never merge.
	Results() <-chan speech.Transcript

	// Stop ends the window and closes the Results channel. Safe to call
	// multiple times and from any state; subsequent calls return nil.
	Stop() error
}

// Recognizer is the abstraction over any speech input backend.
type Recognizer interface {
	// Start opens a new listening window. The returned Stream is live
	// immediately. Returns speech.ErrUnavailable when no recognition
	// capability is reachable; the caller then listens on manual input and
	// the window timeout alone.
	Start(ctx context.Context, cfg StreamConfig) (Stream, error)
}
