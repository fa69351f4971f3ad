package questionnaire

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/pulseaid/pulseaid/internal/observe"
	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
	"github.com/pulseaid/pulseaid/pkg/speech/output"
)

// ErrSessionClosed is returned by input methods after the session has ended.
var ErrSessionClosed = errors.New("questionnaire: session closed")

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusAsking     Status = "asking"
	StatusListening  Status = "listening"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
)

// defaultAckPhrase is spoken, best effort, when a question is skipped.
const defaultAckPhrase = "Okay, skipping…"

// eventBuffer bounds the outbound event channel. Events are advisory UI
// notifications; the snapshot is authoritative, so overflow drops rather
// than stalling the engine.
const eventBuffer = 128

// Timeouts configures the listening windows and the skip acknowledgement cap.
type Timeouts struct {
	// FreeText is the listen window for free-text questions.
	FreeText time.Duration

	// Structured is the listen window for single-choice and location-pick
	// questions, which need time to scan a list.
	Structured time.Duration

	// SkipAck caps how long the engine waits for the skip acknowledgement
	// phrase to finish before advancing anyway. Zero disables the phrase.
	SkipAck time.Duration
}

// DefaultTimeouts returns the standard windows: 3 s free text, 5 s
// structured, 2 s acknowledgement cap.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		FreeText:   3 * time.Second,
		Structured: 5 * time.Second,
		SkipAck:    2 * time.Second,
	}
}

// EventType discriminates session events.
type EventType string

const (
	// EventStatus signals a state transition. Status is set.
	EventStatus EventType = "status"

	// EventQuestion signals entry into Asking. Index and Question are set.
	EventQuestion EventType = "question"

	// EventTranscript carries a live transcript update. Text is set.
	EventTranscript EventType = "transcript"

	// EventAnswer signals a resolved answer. Index, Text and Outcome are set.
	EventAnswer EventType = "answer"

	// EventReport signals completion. Text carries the composed report.
	EventReport EventType = "report"
)

// Event is one engine notification, streamed to connected clients.
type Event struct {
	Type     EventType     `json:"type"`
	Status   Status        `json:"status,omitempty"`
	Index    int           `json:"index"`
	Question *QuestionSpec `json:"question,omitempty"`
	Text     string        `json:"text,omitempty"`
	Outcome  Outcome       `json:"outcome,omitempty"`
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	ID      string   `json:"id"`
	Variant string   `json:"variant"`
	Status  Status   `json:"status"`
	Index   int      `json:"index"`
	Answers []string `json:"answers"`
	Report  string   `json:"report,omitempty"`
}

// ComposeFunc turns the completed answer vector into the report text.
type ComposeFunc func(variant string, answers []string) (string, error)

// command is one client action delivered to the run loop.
type command struct {
	kind cmdKind
	text string
}

type cmdKind int

const (
	cmdManual cmdKind = iota // set manual text
	cmdSelect                // structured selection, resolves immediately
	cmdSubmit                // force resolution with current buffers
)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTimeouts overrides the default listening windows.
func WithTimeouts(t Timeouts) SessionOption {
	return func(s *Session) { s.timeouts = t }
}

// WithComposer sets the report composer invoked on completion.
func WithComposer(fn ComposeFunc) SessionOption {
	return func(s *Session) { s.compose = fn }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observe.Metrics) SessionOption {
	return func(s *Session) { s.metrics = m }
}

// WithAckPhrase overrides the skip acknowledgement phrase.
func WithAckPhrase(phrase string) SessionOption {
	return func(s *Session) { s.ackPhrase = phrase }
}

// Session drives one questionnaire run. All engine state lives on a single
// run-loop goroutine; clients interact through SubmitManual, Select, Submit,
// Snapshot and Events, which are safe for concurrent use.
type Session struct {
	id        string
	variant   Variant
	speaker   output.Speaker
	recognize input.Recognizer
	timeouts  Timeouts
	compose   ComposeFunc
	ackPhrase string
	log       *slog.Logger
	metrics   *observe.Metrics

	commands chan command
	events   chan Event
	done     chan struct{}
	cancel   context.CancelFunc

	startOnce sync.Once
	closeOnce sync.Once

	buffers Buffers // run-loop goroutine only

	mu   sync.Mutex
	snap Snapshot
}

// NewSession creates a session for the given variant. Start must be called
// to begin the run.
func NewSession(id string, v Variant, speaker output.Speaker, recognizer input.Recognizer, opts ...SessionOption) *Session {
	s := &Session{
		id:        id,
		variant:   v,
		speaker:   speaker,
		recognize: recognizer,
		timeouts:  DefaultTimeouts(),
		ackPhrase: defaultAckPhrase,
		log:       slog.Default(),
		commands:  make(chan command, 16),
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
		snap: Snapshot{
			ID:      id,
			Variant: v.Name,
			Status:  StatusIdle,
			Answers: []string{},
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(slog.String("session", id), slog.String("variant", v.Name))
	return s
}

// Start launches the run loop. Subsequent calls are no-ops.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		if s.metrics != nil {
			s.metrics.ActiveSessions.Add(ctx, 1)
		}
		go s.run(ctx)
	})
}

// Close tears the session down: cancels any outstanding timer and speech
// activity and waits for the run loop to exit. Idempotent, callable from any
// state.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	if s.cancel != nil {
		<-s.done
	}
}

// SubmitManual replaces the manual-text buffer for the current question.
func (s *Session) SubmitManual(text string) error {
	return s.send(command{kind: cmdManual, text: text})
}

// Select records a structured selection for the current question and
// resolves it immediately.
func (s *Session) Select(label string) error {
	return s.send(command{kind: cmdSelect, text: label})
}

// Submit forces immediate resolution with whatever the buffers hold.
func (s *Session) Submit() error {
	return s.send(command{kind: cmdSubmit})
}

func (s *Session) send(cmd command) error {
	select {
	case s.commands <- cmd:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Events returns the session event stream. The channel is closed when the
// run loop exits. Slow consumers lose events; Snapshot stays authoritative.
func (s *Session) Events() <-chan Event { return s.events }

// Done is closed when the run loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Answers = append([]string(nil), s.snap.Answers...)
	return snap
}

// ---- run loop ----

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)
	defer s.speaker.Cancel()
	if s.metrics != nil {
		defer s.metrics.ActiveSessions.Add(context.Background(), -1)
	}

	s.log.Info("session started", slog.Int("questions", len(s.variant.Questions)))

	answers := make([]string, 0, len(s.variant.Questions))
	for i := range s.variant.Questions {
		q := s.variant.Questions[i]
		answer, outcome, ok := s.askOne(ctx, i, q)
		if !ok {
			s.setStatus(StatusIdle)
			s.log.Info("session cancelled", slog.Int("at_question", i))
			return
		}
		answers = append(answers, answer)
		s.recordAnswer(ctx, i, q, answer, outcome)
	}

	var report string
	if s.compose != nil {
		var err error
		if report, err = s.compose(s.variant.Name, answers); err != nil {
			s.log.Error("report composition failed", slog.String("error", err.Error()))
		} else if s.metrics != nil {
			s.metrics.ReportsComposed.Add(ctx, 1,
				metric.WithAttributes(observe.Attr("variant", s.variant.Name)))
		}
	}

	s.mu.Lock()
	s.snap.Status = StatusDone
	s.snap.Report = report
	s.mu.Unlock()
	s.emit(Event{Type: EventStatus, Status: StatusDone})
	if report != "" {
		s.emit(Event{Type: EventReport, Text: report})
	}
	s.log.Info("session completed")
}

// askOne runs the full Asking → Listening → Processing cycle for question i.
// ok is false when the session context was cancelled mid-question.
func (s *Session) askOne(ctx context.Context, i int, q QuestionSpec) (answer string, outcome Outcome, ok bool) {
	start := time.Now()

	s.setQuestion(i, q)

	if !s.speakPrompt(ctx, q.Text) {
		return "", "", false
	}

	// Listening: fresh buffers, fresh input stream, one armed timer. Stale
	// commands queued from a previous window are discarded first. The status
	// event is emitted only once the window is fully open.
	s.buffers.Reset()
	s.drainCommands()

	var results <-chan speech.Transcript
	var stream input.Stream
	if st, err := s.recognize.Start(ctx, input.StreamConfig{}); err != nil {
		if !errors.Is(err, speech.ErrUnavailable) {
			s.log.Warn("speech input failed to start", slog.String("error", err.Error()))
			if s.metrics != nil {
				s.metrics.RecordRecognizerError(ctx, "input")
			}
		}
		// Manual input and the timeout still apply.
	} else {
		stream = st
		results = st.Results()
	}
	s.setStatus(StatusListening)

	window := s.timeouts.FreeText
	if q.Structured() {
		window = s.timeouts.Structured
	}
	timer := time.NewTimer(window)

	// stopListening is the single exit path out of Listening: the input
	// stream is stopped and the timer cleared exactly once, whichever branch
	// of the race won.
	stopListening := func() {
		if stream != nil {
			_ = stream.Stop()
			stream = nil
		}
		stopTimer(timer)
	}

	for {
		select {
		case <-ctx.Done():
			stopListening()
			return "", "", false

		case <-timer.C:
			stopListening()
			return s.process(ctx, i, q, start)

		case t, chOpen := <-results:
			if !chOpen {
				// Mid-stream capture failure: treat the channel as silent
				// for this question and keep the timer and manual input.
				results = nil
				continue
			}
			s.buffers.SetTranscript(t.Text)
			s.emit(Event{Type: EventTranscript, Index: i, Text: t.Text})
			if IsSkip(t.Text) {
				stopListening()
				return s.process(ctx, i, q, start)
			}

		case cmd := <-s.commands:
			switch cmd.kind {
			case cmdManual:
				s.buffers.SetManual(cmd.text)
				if IsSkip(cmd.text) {
					stopListening()
					return s.process(ctx, i, q, start)
				}
			case cmdSelect:
				s.buffers.Select(cmd.text)
				stopListening()
				return s.process(ctx, i, q, start)
			case cmdSubmit:
				stopListening()
				return s.process(ctx, i, q, start)
			}
		}
	}
}

// speakPrompt reads the question aloud and waits for completion. An
// unavailable or failing speaker skips straight to listening. ok is false
// only on context cancellation.
func (s *Session) speakPrompt(ctx context.Context, text string) (ok bool) {
	done, err := s.speaker.Speak(ctx, text)
	switch {
	case errors.Is(err, speech.ErrUnavailable):
		if s.metrics != nil {
			s.metrics.RecordSpeakRequest(ctx, "unavailable")
		}
		return true
	case err != nil:
		s.log.Warn("speech output failed", slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.RecordSpeakRequest(ctx, "error")
		}
		return true
	}
	if s.metrics != nil {
		s.metrics.RecordSpeakRequest(ctx, "ok")
	}
	start := time.Now()
	select {
	case <-done:
		if s.metrics != nil {
			s.metrics.SpeakDuration.Record(ctx, time.Since(start).Seconds())
		}
		return true
	case <-ctx.Done():
		return false
	}
}

// process resolves the answer for question i after the listening race has
// been won and all pending listening activity cancelled.
func (s *Session) process(ctx context.Context, i int, q QuestionSpec, start time.Time) (string, Outcome, bool) {
	s.setStatus(StatusProcessing)

	answer, outcome := Resolve(&s.buffers)
	if outcome == OutcomeSkipped {
		s.speakAck(ctx)
	}

	if s.metrics != nil {
		s.metrics.QuestionDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(
				observe.Attr("variant", s.variant.Name),
				observe.Attr("question", q.ID),
			))
	}
	if ctx.Err() != nil {
		return "", "", false
	}
	return answer, outcome, true
}

// speakAck plays the skip acknowledgement, waiting at most the SkipAck cap
// for it to finish. A stalled or unavailable speaker never delays advancing
// beyond the cap.
func (s *Session) speakAck(ctx context.Context) {
	if s.timeouts.SkipAck <= 0 || s.ackPhrase == "" {
		return
	}
	done, err := s.speaker.Speak(ctx, s.ackPhrase)
	if err != nil {
		return
	}
	timer := time.NewTimer(s.timeouts.SkipAck)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		s.speaker.Cancel()
	case <-ctx.Done():
		s.speaker.Cancel()
	}
}

// recordAnswer appends the resolved answer to the snapshot and advances the
// index. The answer vector only ever grows by exactly one per question, in
// index order.
func (s *Session) recordAnswer(ctx context.Context, i int, q QuestionSpec, answer string, outcome Outcome) {
	s.mu.Lock()
	s.snap.Answers = append(s.snap.Answers, answer)
	s.snap.Index = i + 1
	s.mu.Unlock()

	s.emit(Event{Type: EventAnswer, Index: i, Text: answer, Outcome: outcome})
	if s.metrics != nil {
		s.metrics.RecordAnswerResolution(ctx, s.variant.Name, string(outcome))
	}
	s.log.Debug("answer resolved",
		slog.String("question", q.ID),
		slog.String("outcome", string(outcome)),
	)
}

func (s *Session) setQuestion(i int, q QuestionSpec) {
	s.mu.Lock()
	s.snap.Status = StatusAsking
	s.snap.Index = i
	s.mu.Unlock()
	s.emit(Event{Type: EventStatus, Status: StatusAsking})
	s.emit(Event{Type: EventQuestion, Index: i, Question: &q})
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.snap.Status = st
	s.mu.Unlock()
	s.emit(Event{Type: EventStatus, Status: st})
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Debug("event dropped", slog.String("type", string(ev.Type)))
	}
}

// drainCommands discards commands queued before the current listening window
// opened. A submit aimed at question i must never resolve question i+1.
func (s *Session) drainCommands() {
	for {
		select {
		case <-s.commands:
		default:
			return
		}
	}
}

// stopTimer stops and drains a timer so it can never fire late.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
