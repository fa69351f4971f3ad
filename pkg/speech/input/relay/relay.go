// Package relay implements input.Recognizer for clients that run speech
// recognition themselves (the browser's webkitSpeechRecognition). The session
// gateway pushes each cumulative transcript it receives from the client into
// the recogniser, which forwards it to the stream of the current listening
// window. Transcripts arriving after the window stopped are dropped — a late
// recognition result must never leak into a later question.
package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
)

// resultBuffer is the per-window channel capacity. Interim results are
// superseding values, so dropping under backpressure loses nothing the next
// push will not restore.
const resultBuffer = 16

// Recognizer relays client-side recognition results into per-window streams.
// All methods are safe for concurrent use.
type Recognizer struct {
	mu  sync.Mutex
	cur *stream
}

// New returns a ready Recognizer.
func New() *Recognizer {
	return &Recognizer{}
}

// Start opens a new listening window. Any previous window is stopped first;
// only one window is live at a time, matching the engine's strict
// one-question-at-a-time ordering.
func (r *Recognizer) Start(ctx context.Context, cfg input.StreamConfig) (input.Stream, error) {
	_ = cfg // capture happens client-side; format hints do not apply

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cur != nil {
		r.cur.stop()
	}
	st := &stream{results: make(chan speech.Transcript, resultBuffer)}
	r.cur = st

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			st.stop()
		}()
	}
	return st, nil
}

// Push delivers a cumulative transcript from the client to the current
// listening window. Returns false when no window is live or the transcript
// was dropped.
func (r *Recognizer) Push(t speech.Transcript) bool {
	r.mu.Lock()
	st := r.cur
	r.mu.Unlock()
	if st == nil {
		return false
	}
	return st.push(t)
}

// stream is one live listening window.
type stream struct {
	mu      sync.Mutex
	results chan speech.Transcript
	stopped bool
}

func (s *stream) push(t speech.Transcript) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	select {
	case s.results <- t:
		return true
	default:
		// Buffer full: drop. The next cumulative result supersedes this one.
		return false
	}
}

// SendAudio accepts and discards audio; the client performs its own capture.
func (s *stream) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("relay: stream is stopped")
	}
	return nil
}

func (s *stream) Results() <-chan speech.Transcript { return s.results }

// Stop closes the window. Idempotent; later pushes are dropped.
func (s *stream) Stop() error {
	s.stop()
	return nil
}

func (s *stream) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.results)
	}
}

// Ensure interface satisfaction at compile time.
var (
	_ input.Recognizer = (*Recognizer)(nil)
	_ input.Stream     = (*stream)(nil)
)
