// Package mock provides test doubles for the input package interfaces.
//
// Use Recognizer to verify that the caller opens listening windows with the
// expected StreamConfig. Use Stream to feed scripted speech.Transcript values
// and to assert that the window was stopped.
//
// Example:
//
//	st := mock.NewStream()
//	rec := &mock.Recognizer{Stream: st}
//	// ... engine enters Listening and calls rec.Start ...
//	st.Push(speech.Transcript{Text: "45 years old"})
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
)

// StartCall records a single invocation of Recognizer.Start.
type StartCall struct {
	// Ctx is the context passed to Start.
	Ctx context.Context
	// Cfg is the StreamConfig passed to Start.
	Cfg input.StreamConfig
}

// Recognizer is a mock implementation of input.Recognizer.
type Recognizer struct {
	mu sync.Mutex

	// Stream is returned by Start. If nil, Start returns a fresh NewStream().
	Stream input.Stream

	// StartErr, if non-nil, is returned as the error from Start. Use
	// speech.ErrUnavailable to simulate a missing recogniser.
	StartErr error

	// StartCalls records every call to Start.
	StartCalls []StartCall

	// streams records every stream handed out, in order.
	streams []input.Stream
}

// Start records the call and returns Stream, StartErr.
func (r *Recognizer) Start(ctx context.Context, cfg input.StreamConfig) (input.Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartCalls = append(r.StartCalls, StartCall{Ctx: ctx, Cfg: cfg})
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	st := r.Stream
	if st == nil {
		st = NewStream()
	}
	r.streams = append(r.streams, st)
	return st, nil
}

// Streams returns every stream handed out by Start, in order. Thread-safe.
func (r *Recognizer) Streams() []input.Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]input.Stream, len(r.streams))
	copy(out, r.streams)
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StartCalls = nil
	r.streams = nil
}

// Ensure Recognizer implements input.Recognizer at compile time.
var _ input.Recognizer = (*Recognizer)(nil)

// Stream is a mock implementation of input.Stream. Feed transcripts with
// Push; they arrive on Results in order. Push after Stop is silently dropped,
// mirroring how a real adapter suppresses late recognition callbacks.
type Stream struct {
	mu      sync.Mutex
	results chan speech.Transcript
	stopped bool

	// SendAudioCalls records the audio chunks delivered via SendAudio.
	SendAudioCalls [][]byte

	// StopCallCount is the number of times Stop was called.
	StopCallCount int
}

// NewStream returns a Stream with a buffered results channel ready for Push.
func NewStream() *Stream {
	return &Stream{results: make(chan speech.Transcript, 16)}
}

// Push delivers a scripted transcript to the consumer. Returns false when the
// stream is already stopped or the buffer is full and the value was dropped.
func (s *Stream) Push(t speech.Transcript) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	select {
	case s.results <- t:
		return true
	default:
		return false
	}
}

// SendAudio records the chunk. Returns an error after Stop.
func (s *Stream) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("mock: stream is stopped")
	}
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, cp)
	return nil
}

// Results returns the transcript channel.
func (s *Stream) Results() <-chan speech.Transcript {
	return s.results
}

// Stop closes the results channel. Idempotent.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StopCallCount++
	if !s.stopped {
		s.stopped = true
		close(s.results)
	}
	return nil
}

// Stopped reports whether Stop has been called at least once. Thread-safe.
func (s *Stream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Ensure Stream implements input.Stream at compile time.
var _ input.Stream = (*Stream)(nil)
