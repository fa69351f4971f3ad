package input

import (
	"context"
	"sync"
)

// Gateway wraps a Recognizer and tracks its current listening window so a
// transport can push client-captured audio into it without knowing which
// adapter is configured. The engine opens one window at a time; PushAudio
// always targets the most recently opened one. A stopped window rejects
// audio, which protects a later question's window from stale chunks.
//
// All methods are safe for concurrent use.
type Gateway struct {
	rec Recognizer

	mu  sync.Mutex
	cur Stream
}

// NewGateway wraps rec.
func NewGateway(rec Recognizer) *Gateway {
	return &Gateway{rec: rec}
}

// Start opens a window on the wrapped recogniser and records it as the
// current audio target.
func (g *Gateway) Start(ctx context.Context, cfg StreamConfig) (Stream, error) {
	st, err := g.rec.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.cur = st
	g.mu.Unlock()
	return st, nil
}

// PushAudio delivers a raw PCM chunk to the current listening window. Returns
// false when no window has been opened yet or the window no longer accepts
// audio.
func (g *Gateway) PushAudio(chunk []byte) bool {
	g.mu.Lock()
	st := g.cur
	g.mu.Unlock()
	if st == nil {
		return false
	}
	return st.SendAudio(chunk) == nil
}

var _ Recognizer = (*Gateway)(nil)
