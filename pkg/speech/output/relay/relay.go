// Package relay implements output.Speaker by forwarding utterances to a
// connected browser client, which performs the actual synthesis with its
// native speechSynthesis engine. The session gateway binds itself as the
// transport when a client connects and reports utterance completion back
// via Ack.
//
// When no client is bound, Speak returns speech.ErrUnavailable and the
// questionnaire proceeds without read-aloud.
package relay

import (
	"context"
	"sync"

	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/output"
)

// SendFunc delivers one speak command to the bound client. Implementations
// are provided by the gateway and must be safe to call from any goroutine.
type SendFunc func(text string) error

// Speaker relays utterances to a browser client. The zero value is unusable;
// use New. All methods are safe for concurrent use.
type Speaker struct {
	mu      sync.Mutex
	send    SendFunc
	pending chan struct{}
}

// New returns an unbound Speaker. Until Bind is called, Speak reports
// speech.ErrUnavailable.
func New() *Speaker {
	return &Speaker{}
}

// Bind attaches the client transport. A previously pending utterance is
// preempted: its signal channel closes, since the old client can no longer
// acknowledge it. Pass nil to detach (equivalent to Unbind).
func (s *Speaker) Bind(send SendFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptLocked()
	s.send = send
}

// Unbind detaches the client transport and preempts any pending utterance.
func (s *Speaker) Unbind() {
	s.Bind(nil)
}

// Speak forwards text to the bound client and returns a channel closed when
// the client acknowledges completion, the utterance is preempted, or ctx is
// cancelled. Returns speech.ErrUnavailable when no client is bound.
func (s *Speaker) Speak(ctx context.Context, text string) (<-chan struct{}, error) {
	s.mu.Lock()
	send := s.send
	if send == nil {
		s.mu.Unlock()
		return nil, speech.ErrUnavailable
	}

	s.preemptLocked()
	done := make(chan struct{})
	s.pending = done
	s.mu.Unlock()

	if err := send(text); err != nil {
		// Client went away mid-send. Treat as preempted, not as a failure:
		// completion is best-effort delivery.
		s.mu.Lock()
		if s.pending == done {
			close(done)
			s.pending = nil
		}
		s.mu.Unlock()
		return done, nil
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				s.mu.Lock()
				if s.pending == done {
					close(done)
					s.pending = nil
				}
				s.mu.Unlock()
			case <-done:
			}
		}()
	}

	return done, nil
}

// Ack marks the current utterance complete. Called by the gateway when the
// client reports its synthesis finished. No-op when nothing is pending.
func (s *Speaker) Ack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptLocked()
}

// Cancel silences any in-flight utterance. Idempotent.
func (s *Speaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preemptLocked()
}

// preemptLocked closes the pending signal channel, if any. Callers hold s.mu.
func (s *Speaker) preemptLocked() {
	if s.pending != nil {
		close(s.pending)
		s.pending = nil
	}
}

// Ensure Speaker implements output.Speaker at compile time.
var _ output.Speaker = (*Speaker)(nil)
