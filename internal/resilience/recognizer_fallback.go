package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
)

// RecognizerFallback implements [input.Recognizer] with automatic failover
// across multiple recognition backends. Each backend has its own circuit
// breaker.
//
// A backend reporting [speech.ErrUnavailable] is an expected condition (an
// unbound relay, a disabled capture device): the next entry is tried, but the
// breaker records no failure for it.
type RecognizerFallback struct {
	group *FallbackGroup[input.Recognizer]
}

// Compile-time interface assertion.
var _ input.Recognizer = (*RecognizerFallback)(nil)

// NewRecognizerFallback creates a [RecognizerFallback] with primary as the
// preferred backend.
func NewRecognizerFallback(primary input.Recognizer, primaryName string, cfg FallbackConfig) *RecognizerFallback {
	return &RecognizerFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional recognizer as a fallback.
func (f *RecognizerFallback) AddFallback(name string, r input.Recognizer) {
	f.group.AddFallback(name, r)
}

// Start opens a listening window against the first healthy backend. Only the
// window setup is covered by failover; a stream that dies mid-window closes
// its Results channel and the engine falls back to manual input for that
// question.
func (f *RecognizerFallback) Start(ctx context.Context, cfg input.StreamConfig) (input.Stream, error) {
	var (
		lastErr        error
		sawUnavailable bool
	)
	for i := range f.group.entries {
		entry := &f.group.entries[i]
		var (
			stream   input.Stream
			startErr error
		)
		err := entry.breaker.Execute(func() error {
			stream, startErr = entry.value.Start(ctx, cfg)
			if errors.Is(startErr, speech.ErrUnavailable) {
				// Not a backend fault; keep the breaker closed.
				return nil
			}
			return startErr
		})
		if err == nil {
			if errors.Is(startErr, speech.ErrUnavailable) {
				lastErr = startErr
				sawUnavailable = true
				continue
			}
			return stream, nil
		}
		lastErr = err
		f.group.logFailure(entry.name, err)
	}
	if sawUnavailable {
		return nil, speech.ErrUnavailable
	}
	return nil, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
