package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/pulseaid/pulseaid/internal/questionnaire"
	"github.com/pulseaid/pulseaid/internal/tracker"
	"github.com/pulseaid/pulseaid/pkg/speech"
)

// wsWriteTimeout bounds a single outbound frame write.
const wsWriteTimeout = 5 * time.Second

// clientMessage is one inbound frame from the browser.
type clientMessage struct {
	// Type is one of: transcript, speech_end, input, choice, submit, skip.
	Type string `json:"type"`

	// Text carries the manual input or the cumulative recognition result.
	Text string `json:"text,omitempty"`

	// Label carries the structured selection.
	Label string `json:"label,omitempty"`

	// Final marks a committed recognition result.
	Final bool `json:"final,omitempty"`

	// Confidence is the recognition confidence, when the client reports one.
	Confidence float64 `json:"confidence,omitempty"`
}

// speakFrame asks the client to synthesise text and report completion with a
// speech_end message.
type speakFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// snapshotFrame carries the authoritative session state. Sent on connect and
// after the event stream ends, so a client that missed events can resync.
type snapshotFrame struct {
	Type     string                 `json:"type"`
	Snapshot questionnaire.Snapshot `json:"snapshot"`
}

// trackerFrame carries one ambulance position update.
type trackerFrame struct {
	Type   string         `json:"type"`
	Update tracker.Update `json:"update"`
}

// wsWriter serialises frame writes from the reader goroutine, the event
// pump, and the engine's speak callbacks.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return w.conn.Write(wctx, websocket.MessageText, data)
}

// sessionSocket streams questionnaire events to the client and relays its
// input back. When the speech providers are the browser relays, the socket
// also carries speak commands out and recognition results in.
func (h *Handler) sessionSocket(w http.ResponseWriter, r *http.Request) {
	sess, info, err := h.app.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The app ships as a webview bundle, not from this server's origin.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("websocket accept failed", "session_id", info.ID, "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writer := &wsWriter{conn: conn}

	if h.relaySpeaker != nil {
		h.relaySpeaker.Bind(func(text string) error {
			return writer.send(ctx, speakFrame{Type: "speak", Text: text})
		})
		defer h.relaySpeaker.Unbind()
	}

	h.log.Info("session socket connected", "session_id", info.ID)

	if err := writer.send(ctx, snapshotFrame{Type: "snapshot", Snapshot: sess.Snapshot()}); err != nil {
		return
	}

	// Event pump: forward engine events until the session finishes or the
	// client disconnects.
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sess.Events():
				if !ok {
					// Session finished; resend the authoritative state in
					// case any event was dropped under backpressure.
					_ = writer.send(ctx, snapshotFrame{Type: "snapshot", Snapshot: sess.Snapshot()})
					return
				}
				if err := writer.send(ctx, ev); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	h.readClient(ctx, conn, sess)
	cancel()
	<-pumpDone

	conn.Close(websocket.StatusNormalClosure, "session closed")
	h.log.Info("session socket disconnected", "session_id", info.ID)
}

// readClient dispatches inbound frames until the connection drops or ctx is
// cancelled. Command errors after session completion are expected and only
// logged at debug level.
func (h *Handler) readClient(ctx context.Context, conn *websocket.Conn, sess *questionnaire.Session) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		// Binary frames carry raw PCM audio for server-side recognisers.
		if typ == websocket.MessageBinary {
			if h.audioSink != nil {
				h.audioSink.PushAudio(data)
			}
			continue
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.Debug("discarding malformed client frame", "err", err)
			continue
		}

		switch msg.Type {
		case "transcript":
			if h.relayRecognizer != nil {
				h.relayRecognizer.Push(speech.Transcript{
					Text:       msg.Text,
					Final:      msg.Final,
					Confidence: msg.Confidence,
				})
			}
		case "speech_end":
			if h.relaySpeaker != nil {
				h.relaySpeaker.Ack()
			}
		case "input":
			if err := sess.SubmitManual(msg.Text); err != nil {
				h.log.Debug("input after session end", "err", err)
			}
		case "choice":
			if err := sess.Select(msg.Label); err != nil {
				h.log.Debug("choice after session end", "err", err)
			}
		case "submit":
			if err := sess.Submit(); err != nil {
				h.log.Debug("submit after session end", "err", err)
			}
		case "skip":
			if err := sess.SubmitManual("skip"); err != nil {
				h.log.Debug("skip after session end", "err", err)
				continue
			}
			if err := sess.Submit(); err != nil {
				h.log.Debug("skip submit after session end", "err", err)
			}
		default:
			h.log.Debug("unknown client frame type", "type", msg.Type)
		}
	}
}

// trackerSocket streams ambulance position updates until the client
// disconnects.
func (h *Handler) trackerSocket(w http.ResponseWriter, r *http.Request) {
	tr := h.app.Tracker()
	if tr == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: errTrackerDisabled.Error()})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("tracker socket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	writer := &wsWriter{conn: conn}

	updates, unsubscribe := tr.Subscribe()
	defer unsubscribe()

	// Send the current position immediately so the map renders before the
	// first tick.
	if err := writer.send(ctx, trackerFrame{Type: "tracker", Update: tr.Snapshot()}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "done")
			return
		case u, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "tracker stopped")
				return
			}
			if err := writer.send(ctx, trackerFrame{Type: "tracker", Update: u}); err != nil {
				return
			}
		}
	}
}
