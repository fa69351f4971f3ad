// Package api exposes the Pulseaid HTTP surface: a REST API for session
// control, reports, the catalog, and the ambulance tracker, plus a websocket
// gateway that streams questionnaire events to the browser and relays its
// speech synthesis and recognition results back.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulseaid/pulseaid/internal/app"
	"github.com/pulseaid/pulseaid/internal/observe"
	inputrelay "github.com/pulseaid/pulseaid/pkg/speech/input/relay"
	outputrelay "github.com/pulseaid/pulseaid/pkg/speech/output/relay"
)

// Config holds the handler dependencies.
type Config struct {
	// App provides the session manager, catalog, summariser, tracker, and
	// health checks.
	App *app.App

	// RelaySpeaker, when the speaker provider is the browser relay, lets the
	// websocket gateway forward speak commands and acknowledgements. Nil when
	// another provider owns synthesis.
	RelaySpeaker *outputrelay.Speaker

	// RelayRecognizer, when the recognizer provider is the browser relay,
	// lets the gateway push client-side recognition results into the current
	// listening window. Nil when another provider owns recognition.
	RelayRecognizer *inputrelay.Recognizer

	// AudioSink receives raw PCM chunks arriving as binary websocket frames
	// and routes them into the active recognizer's listening window, whatever
	// the configured adapter. Nil drops client audio.
	AudioSink AudioSink

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics defaults to the App's bundle.
	Metrics *observe.Metrics
}

// AudioSink consumes raw PCM audio from the websocket gateway.
// input.Gateway is the production implementation.
type AudioSink interface {
	PushAudio(chunk []byte) bool
}

// Handler carries the wired dependencies for all HTTP endpoints.
type Handler struct {
	app             *app.App
	relaySpeaker    *outputrelay.Speaker
	relayRecognizer *inputrelay.Recognizer
	audioSink       AudioSink
	log             *slog.Logger
	metrics         *observe.Metrics
}

// NewRouter builds the full Pulseaid route tree.
func NewRouter(cfg Config) http.Handler {
	h := &Handler{
		app:             cfg.App,
		relaySpeaker:    cfg.RelaySpeaker,
		relayRecognizer: cfg.RelayRecognizer,
		audioSink:       cfg.AudioSink,
		log:             cfg.Logger,
		metrics:         cfg.Metrics,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.metrics == nil {
		h.metrics = cfg.App.Metrics()
	}

	r := chi.NewRouter()
	r.Use(observe.Middleware(h.metrics))

	cfg.App.Health().Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/variants", h.listVariants)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Get("/", h.listSessions)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.deleteSession)
				r.Post("/input", h.submitInput)
				r.Post("/choice", h.submitChoice)
				r.Post("/submit", h.forceSubmit)
				r.Post("/skip", h.skipQuestion)
				r.Post("/reset", h.resetSession)
				r.Get("/report", h.getReport)
				r.Get("/report.pdf", h.getReportPDF)
			})
		})

		r.Post("/summarise", h.summarise)
		r.Get("/tracker", h.trackerSnapshot)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/categories", h.listCategories)
			r.Get("/products", h.listProducts)
			r.Get("/topics", h.listTopics)
			r.Get("/documents", h.listDocuments)
			r.Get("/hospitals", h.listHospitals)
		})
	})

	r.Get("/ws/sessions/{id}", h.sessionSocket)
	r.Get("/ws/tracker", h.trackerSocket)

	return r
}
