package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulseaid/pulseaid/internal/config"
	"github.com/pulseaid/pulseaid/internal/observe"
	"github.com/pulseaid/pulseaid/internal/questionnaire"
	"github.com/pulseaid/pulseaid/internal/report"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
	"github.com/pulseaid/pulseaid/pkg/speech/output"
)

// ErrSessionNotFound is returned when the requested session ID is unknown.
var ErrSessionNotFound = errors.New("app: session not found")

// SessionInfo holds metadata about a questionnaire session.
type SessionInfo struct {
	// ID is the unique identifier for this session.
	ID string

	// Variant is the questionnaire variant being asked.
	Variant string

	// StartedAt is when the session run loop was started.
	StartedAt time.Time
}

// managedSession pairs a running session with its metadata and the cancel
// function for its run-loop context.
type managedSession struct {
	session *questionnaire.Session
	info    SessionInfo
	cancel  context.CancelFunc
}

// SessionManager owns the lifecycle of questionnaire sessions. Sessions are
// keyed by generated UUIDs; Reset replaces a session's run under the same ID
// so clients can restart a report without renegotiating identifiers.
// All exported methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession

	speaker    output.Speaker
	recognizer input.Recognizer
	composer   questionnaire.ComposeFunc
	log        *slog.Logger
	metrics    *observe.Metrics

	// qcfg holds the current questionnaire tuning. Guarded by mu so the
	// config watcher can swap it while sessions are being created.
	qcfg config.QuestionnaireConfig
}

// SessionManagerConfig holds all dependencies for a [SessionManager].
type SessionManagerConfig struct {
	Speaker       output.Speaker
	Recognizer    input.Recognizer
	Questionnaire config.QuestionnaireConfig
	Composer      questionnaire.ComposeFunc
	Logger        *slog.Logger
	Metrics       *observe.Metrics
}

// NewSessionManager creates a SessionManager with the given dependencies.
// When Composer is nil, [report.Compose] is used.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	composer := cfg.Composer
	if composer == nil {
		composer = report.Compose
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &SessionManager{
		sessions:   make(map[string]*managedSession),
		speaker:    cfg.Speaker,
		recognizer: cfg.Recognizer,
		composer:   composer,
		log:        log,
		metrics:    cfg.Metrics,
		qcfg:       cfg.Questionnaire,
	}
}

// Create starts a new questionnaire session for the named variant and returns
// it. An empty variantName falls back to the configured default, then to
// "general". Returns [questionnaire.ErrUnknownVariant] for unknown names.
//
// The session runs on a background context independent of ctx so it survives
// the creating HTTP request; it is torn down by Remove, Reset, or CloseAll.
func (sm *SessionManager) Create(ctx context.Context, variantName string) (*questionnaire.Session, SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.createLocked(ctx, uuid.NewString(), variantName)
}

// createLocked starts a session under the given ID. Caller holds sm.mu.
func (sm *SessionManager) createLocked(_ context.Context, id, variantName string) (*questionnaire.Session, SessionInfo, error) {
	if variantName == "" {
		variantName = sm.qcfg.DefaultVariant
	}
	if variantName == "" {
		variantName = "general"
	}

	v, err := questionnaire.VariantByName(variantName)
	if err != nil {
		return nil, SessionInfo{}, err
	}

	opts := []questionnaire.SessionOption{
		questionnaire.WithComposer(sm.composer),
		questionnaire.WithLogger(sm.log),
		questionnaire.WithTimeouts(sm.timeoutsLocked()),
	}
	if sm.metrics != nil {
		opts = append(opts, questionnaire.WithMetrics(sm.metrics))
	}
	if phrase := sm.qcfg.AckPhrase; phrase != "" {
		opts = append(opts, questionnaire.WithAckPhrase(phrase))
	}

	sess := questionnaire.NewSession(id, v, sm.speaker, sm.recognizer, opts...)

	runCtx, cancel := context.WithCancel(context.Background())
	sess.Start(runCtx)

	info := SessionInfo{
		ID:        id,
		Variant:   v.Name,
		StartedAt: time.Now().UTC(),
	}
	sm.sessions[id] = &managedSession{session: sess, info: info, cancel: cancel}

	sm.log.Info("session created", "session_id", id, "variant", v.Name)
	return sess, info, nil
}

// Get returns the session with the given ID.
func (sm *SessionManager) Get(id string) (*questionnaire.Session, SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ms, ok := sm.sessions[id]
	if !ok {
		return nil, SessionInfo{}, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return ms.session, ms.info, nil
}

// Reset tears down the session's current run and starts a fresh one for the
// same variant under the same ID. Buffered answers and the report are
// discarded; the new run begins at the first question.
func (sm *SessionManager) Reset(ctx context.Context, id string) (*questionnaire.Session, SessionInfo, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ms, ok := sm.sessions[id]
	if !ok {
		return nil, SessionInfo{}, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}

	variant := ms.info.Variant
	sm.teardownLocked(id, ms)

	sm.log.Info("session reset", "session_id", id, "variant", variant)
	return sm.createLocked(ctx, id, variant)
}

// Remove closes the session and forgets its ID.
func (sm *SessionManager) Remove(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ms, ok := sm.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	sm.teardownLocked(id, ms)
	sm.log.Info("session removed", "session_id", id)
	return nil
}

// List returns metadata for all live sessions in unspecified order.
func (sm *SessionManager) List() []SessionInfo {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sm.sessions))
	for _, ms := range sm.sessions {
		infos = append(infos, ms.info)
	}
	return infos
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// CloseAll tears down every live session. Used during shutdown.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, ms := range sm.sessions {
		sm.teardownLocked(id, ms)
	}
	sm.log.Info("all sessions closed")
}

// ApplyQuestionnaire swaps the questionnaire tuning used for sessions created
// from now on. Running sessions keep the windows they started with.
func (sm *SessionManager) ApplyQuestionnaire(q config.QuestionnaireConfig) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.qcfg = q
	sm.log.Info("questionnaire tuning updated",
		"default_variant", q.DefaultVariant,
		"free_text_timeout", q.FreeTextTimeout,
		"structured_timeout", q.StructuredTimeout,
	)
}

// teardownLocked cancels the session's context, waits for its run loop to
// drain, and deletes it from the map. Caller holds sm.mu.
func (sm *SessionManager) teardownLocked(id string, ms *managedSession) {
	ms.cancel()
	ms.session.Close()
	delete(sm.sessions, id)
}

// timeoutsLocked converts the current questionnaire config into engine
// timeouts, falling back to defaults for unset fields. Caller holds sm.mu.
func (sm *SessionManager) timeoutsLocked() questionnaire.Timeouts {
	t := questionnaire.DefaultTimeouts()
	if sm.qcfg.FreeTextTimeout > 0 {
		t.FreeText = sm.qcfg.FreeTextTimeout
	}
	if sm.qcfg.StructuredTimeout > 0 {
		t.Structured = sm.qcfg.StructuredTimeout
	}
	if sm.qcfg.SkipAckTimeout > 0 {
		t.SkipAck = sm.qcfg.SkipAckTimeout
	}
	return t
}
