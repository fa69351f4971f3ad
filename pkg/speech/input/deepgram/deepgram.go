// Package deepgram implements input.Recognizer backed by the Deepgram
// streaming WebSocket API, for deployments where the server receives raw PCM
// from the client and runs recognition itself instead of relaying the
// browser's results.
//
// Deepgram emits per-utterance segments; this adapter folds them into the
// cumulative whole-window transcripts the input.Stream contract requires:
// committed finals are concatenated and the latest interim segment is
// appended, so every emitted value supersedes the previous one.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/coder/websocket"

	"github.com/pulseaid/pulseaid/pkg/speech"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
)

const (
	endpoint          = "wss://api.deepgram.com/v1/listen"
	defaultModel      = "nova-3"
	defaultLanguage   = "en"
	defaultSampleRate = 16000
)

// Option is a functional option for configuring the Recognizer.
type Option func(*Recognizer)

// WithModel sets the Deepgram model (e.g. "nova-3", "base").
func WithModel(model string) Option {
	return func(r *Recognizer) { r.model = model }
}

// WithLanguage sets the default BCP-47 language code for recognition.
func WithLanguage(language string) Option {
	return func(r *Recognizer) { r.language = language }
}

// Recognizer implements input.Recognizer backed by the Deepgram streaming API.
type Recognizer struct {
	apiKey   string
	model    string
	language string
}

// New creates a Deepgram Recognizer. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Recognizer, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	r := &Recognizer{
		apiKey:   apiKey,
		model:    defaultModel,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Start opens a streaming recognition session for one listening window.
func (r *Recognizer) Start(ctx context.Context, cfg input.StreamConfig) (input.Stream, error) {
	wsURL, err := r.buildURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("deepgram: dial: %w", err)
	}

	st := &stream{
		conn:    conn,
		results: make(chan speech.Transcript, 16),
		audio:   make(chan []byte, 256),
		done:    make(chan struct{}),
	}
	st.wg.Add(2)
	go st.readLoop(ctx)
	go st.writeLoop(ctx)
	return st, nil
}

// buildURL constructs the streaming endpoint URL for the given window config.
func (r *Recognizer) buildURL(cfg input.StreamConfig) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	lang := cfg.Language
	if lang == "" {
		lang = r.language
	}
	sr := cfg.SampleRate
	if sr == 0 {
		sr = defaultSampleRate
	}

	q := u.Query()
	q.Set("model", r.model)
	q.Set("language", lang)
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sr))
	if cfg.Channels > 0 {
		q.Set("channels", strconv.Itoa(cfg.Channels))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- stream ----

// response is the JSON structure of a Deepgram Results event.
type response struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// stream is a live Deepgram session for one listening window.
type stream struct {
	conn    *websocket.Conn
	results chan speech.Transcript
	audio   chan []byte

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup

	// committed accumulates finalised segment texts for the window.
	// Only the readLoop goroutine touches it.
	committed []string
}

// SendAudio queues a PCM chunk for delivery to Deepgram.
func (s *stream) SendAudio(chunk []byte) error {
	select {
	case <-s.done:
		return errors.New("deepgram: stream is stopped")
	default:
	}
	select {
	case s.audio <- chunk:
		return nil
	case <-s.done:
		return errors.New("deepgram: stream is stopped")
	}
}

// Results returns the channel of cumulative window transcripts.
func (s *stream) Results() <-chan speech.Transcript { return s.results }

// Stop terminates the session. Idempotent.
func (s *stream) Stop() error {
	s.once.Do(func() {
		close(s.done)
		// Ask Deepgram to flush pending audio before closing.
		_ = s.conn.Write(context.Background(), websocket.MessageText, []byte(`{"type":"CloseStream"}`))
		s.wg.Wait()
		s.conn.Close(websocket.StatusNormalClosure, "window closed")
	})
	return nil
}

// writeLoop forwards queued audio chunks as binary messages.
func (s *stream) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case chunk := <-s.audio:
			if err := s.conn.Write(ctx, websocket.MessageBinary, chunk); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// readLoop receives segment results and emits cumulative transcripts.
func (s *stream) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.results)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or cancellation.
			return
		}

		seg, conf, isFinal, ok := parseResponse(msg)
		if !ok {
			continue
		}

		cum := s.cumulative(seg, isFinal)
		if cum == "" {
			continue
		}
		t := speech.Transcript{Text: cum, Final: isFinal, Confidence: conf}

		select {
		case s.results <- t:
		case <-s.done:
			return
		default:
			// Superseding value; safe to drop under backpressure.
		}
	}
}

// cumulative folds a segment into the window transcript and returns the
// combined text. Final segments are committed; interim segments are appended
// transiently.
func (s *stream) cumulative(segment string, isFinal bool) string {
	if isFinal {
		if segment != "" {
			s.committed = append(s.committed, segment)
		}
		return strings.Join(s.committed, " ")
	}
	if segment == "" {
		return strings.Join(s.committed, " ")
	}
	parts := make([]string, 0, len(s.committed)+1)
	parts = append(parts, s.committed...)
	parts = append(parts, segment)
	return strings.Join(parts, " ")
}

// parseResponse extracts the top alternative from a raw Deepgram message.
// ok is false for non-Results messages and unparseable payloads.
func parseResponse(data []byte) (text string, confidence float64, isFinal bool, ok bool) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", 0, false, false
	}
	if resp.Type != "Results" || len(resp.Channel.Alternatives) == 0 {
		return "", 0, false, false
	}
	alt := resp.Channel.Alternatives[0]
	return strings.TrimSpace(alt.Transcript), alt.Confidence, resp.IsFinal, true
}

// Ensure interface satisfaction at compile time.
var (
	_ input.Recognizer = (*Recognizer)(nil)
	_ input.Stream     = (*stream)(nil)
)
