package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/output"
)

// SpeakerFallback implements [output.Speaker] with automatic failover across
// multiple synthesis backends. Each backend has its own circuit breaker.
//
// As with [RecognizerFallback], [speech.ErrUnavailable] is an expected
// condition and records no breaker failure. When every backend is merely
// unavailable, Speak reports speech.ErrUnavailable so the questionnaire
// engine proceeds without read-aloud instead of logging a backend fault.
type SpeakerFallback struct {
	group *FallbackGroup[output.Speaker]
}

// Compile-time interface assertion.
var _ output.Speaker = (*SpeakerFallback)(nil)

// NewSpeakerFallback creates a [SpeakerFallback] with primary as the
// preferred backend.
func NewSpeakerFallback(primary output.Speaker, primaryName string, cfg FallbackConfig) *SpeakerFallback {
	return &SpeakerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional speaker as a fallback.
func (f *SpeakerFallback) AddFallback(name string, s output.Speaker) {
	f.group.AddFallback(name, s)
}

// Speak starts the utterance on the first healthy backend.
func (f *SpeakerFallback) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	var (
		lastErr        error
		sawUnavailable bool
	)
	for i := range f.group.entries {
		entry := &f.group.entries[i]
		var (
			done     <-chan struct{}
			speakErr error
		)
		err := entry.breaker.Execute(func() error {
			done, speakErr = entry.value.Speak(ctx, text)
			if errors.Is(speakErr, speech.ErrUnavailable) {
				// Not a backend fault; keep the breaker closed.
				return nil
			}
			return speakErr
		})
		if err == nil {
			if errors.Is(speakErr, speech.ErrUnavailable) {
				lastErr = speakErr
				sawUnavailable = true
				continue
			}
			return done, nil
		}
		lastErr = err
		f.group.logFailure(entry.name, err)
	}
	if sawUnavailable {
		return nil, speech.ErrUnavailable
	}
	return nil, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// Cancel silences any in-flight utterance on every backend. Only one backend
// can have an active utterance, but cancelling all of them is harmless and
// avoids tracking which entry last spoke.
func (f *SpeakerFallback) Cancel() {
	for i := range f.group.entries {
		f.group.entries[i].value.Cancel()
	}
}
