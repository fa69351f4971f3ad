// Package mock provides a test double for the output.Speaker interface.
//
// The zero value completes every utterance instantly, which is what most
// questionnaire tests want. Set Hold to keep utterances pending and drive
// completion explicitly with Complete, e.g. to test that the engine waits
// for the question prompt to finish before listening.
//
// Example:
//
//	spk := &mock.Speaker{Hold: true}
//	done, _ := spk.Speak(ctx, "What is the patient's age?")
//	spk.Complete() // closes done
package mock

import (
	"context"
	"sync"

	"github.com/pulseaid/pulseaid/pkg/speech/output"
)

// SpeakCall records a single invocation of Speaker.Speak.
type SpeakCall struct {
	// Ctx is the context passed to Speak.
	Ctx context.Context
	// Text is the utterance text passed to Speak.
	Text string
}

// Speaker is a mock implementation of output.Speaker.
type Speaker struct {
	mu sync.Mutex

	// SpeakErr, if non-nil, is returned by every Speak call. Use
	// speech.ErrUnavailable to simulate a missing output device.
	SpeakErr error

	// Hold keeps utterances pending until Complete or Cancel is called.
	// When false (the default) the signal channel is closed before Speak
	// returns.
	Hold bool

	// SpeakCalls records every call to Speak in order.
	SpeakCalls []SpeakCall

	// CancelCallCount is the number of times Cancel was called.
	CancelCallCount int

	// pending is the signal channel of the current utterance, nil when idle.
	pending chan struct{}
}

// Speak records the call and returns a signal channel per the Speaker
// contract. A previous pending utterance is preempted (its channel closed).
func (s *Speaker) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.SpeakCalls = append(s.SpeakCalls, SpeakCall{Ctx: ctx, Text: text})
	if s.SpeakErr != nil {
		return nil, s.SpeakErr
	}

	if s.pending != nil {
		close(s.pending)
		s.pending = nil
	}

	done := make(chan struct{})
	if s.Hold {
		s.pending = done
	} else {
		close(done)
	}
	return done, nil
}

// SetHold toggles Hold. Thread-safe, usable while the consumer is running.
func (s *Speaker) SetHold(hold bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Hold = hold
}

// Cancel closes the pending utterance's signal channel, if any, and records
// the call.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelCallCount++
	if s.pending != nil {
		close(s.pending)
		s.pending = nil
	}
}

// Complete finishes the current held utterance. No-op when nothing is pending.
func (s *Speaker) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		close(s.pending)
		s.pending = nil
	}
}

// Texts returns the utterance texts of all recorded Speak calls. Thread-safe.
func (s *Speaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.SpeakCalls))
	for i, c := range s.SpeakCalls {
		texts[i] = c.Text
	}
	return texts
}

// Reset clears all recorded calls. Thread-safe.
func (s *Speaker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = nil
	s.CancelCallCount = 0
}

// Ensure Speaker implements output.Speaker at compile time.
var _ output.Speaker = (*Speaker)(nil)
