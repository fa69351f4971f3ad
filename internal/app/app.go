// Package app wires all Pulseaid subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP and drives background loops until the context
// is cancelled, and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithTracker, WithSummariser, etc.). When an option is not provided,
// New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulseaid/pulseaid/internal/catalog"
	"github.com/pulseaid/pulseaid/internal/config"
	"github.com/pulseaid/pulseaid/internal/docsum"
	"github.com/pulseaid/pulseaid/internal/health"
	"github.com/pulseaid/pulseaid/internal/observe"
	"github.com/pulseaid/pulseaid/internal/tracker"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
	"github.com/pulseaid/pulseaid/pkg/speech/output"
)

// shutdownGrace is how long Run waits for in-flight HTTP requests to finish
// after the context is cancelled.
const shutdownGrace = 10 * time.Second

// Providers holds one interface value per speech slot. Populated by main.go
// via the config registry.
type Providers struct {
	Speaker    output.Speaker
	Recognizer input.Recognizer
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers

	sessions   *SessionManager
	tracker    *tracker.Tracker
	summariser *docsum.Summariser
	catalog    *catalog.Store
	health     *health.Handler
	metrics    *observe.Metrics
	log        *slog.Logger

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithLogger injects a logger instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithMetrics injects a metrics bundle instead of observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithTracker injects an ambulance tracker instead of creating one from config.
func WithTracker(t *tracker.Tracker) Option {
	return func(a *App) { a.tracker = t }
}

// WithSummariser injects a document summariser instead of creating one from config.
func WithSummariser(s *docsum.Summariser) Option {
	return func(a *App) { a.summariser = s }
}

// WithCatalog injects a catalog store instead of the built-in seed data.
func WithCatalog(c *catalog.Store) Option {
	return func(a *App) { a.catalog = c }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option functions
// to inject test doubles for any subsystem.
func New(cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.Speaker == nil || providers.Recognizer == nil {
		return nil, errors.New("app: speaker and recognizer providers are required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if a.log == nil {
		a.log = slog.Default()
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	a.sessions = NewSessionManager(SessionManagerConfig{
		Speaker:       providers.Speaker,
		Recognizer:    providers.Recognizer,
		Questionnaire: cfg.Questionnaire,
		Logger:        a.log,
		Metrics:       a.metrics,
	})

	if a.tracker == nil && cfg.Tracker.Enabled {
		a.tracker = tracker.New(tracker.Config{
			Tick:            cfg.Tracker.Tick,
			InitialETA:      cfg.Tracker.InitialETAMinutes,
			InitialDistance: cfg.Tracker.InitialDistanceKM,
			Jitter:          cfg.Tracker.Jitter,
		}, a.log)
	}

	if a.summariser == nil {
		var sumOpts []docsum.Option
		if cfg.Summariser.Delay > 0 {
			sumOpts = append(sumOpts, docsum.WithDelay(cfg.Summariser.Delay))
		}
		sumOpts = append(sumOpts, docsum.WithLogger(a.log), docsum.WithMetrics(a.metrics))
		a.summariser = docsum.New(sumOpts...)
	}

	if a.catalog == nil {
		a.catalog = catalog.New()
	}

	a.health = health.New(
		health.Checker{Name: "speech", Check: a.checkSpeech},
		health.Checker{Name: "sessions", Check: a.checkSessions},
	)

	return a, nil
}

// Sessions returns the session manager.
func (a *App) Sessions() *SessionManager { return a.sessions }

// Tracker returns the ambulance tracker, or nil when tracking is disabled.
func (a *App) Tracker() *tracker.Tracker { return a.tracker }

// Summariser returns the document summariser.
func (a *App) Summariser() *docsum.Summariser { return a.summariser }

// Catalog returns the catalog store.
func (a *App) Catalog() *catalog.Store { return a.catalog }

// Health returns the health check handler.
func (a *App) Health() *health.Handler { return a.health }

// Metrics returns the metrics bundle.
func (a *App) Metrics() *observe.Metrics { return a.metrics }

// ApplyConfig applies a hot-reload diff produced by [config.Diff]. Server
// address, TLS, and provider changes require a restart and are ignored here.
func (a *App) ApplyConfig(d config.ConfigDiff) {
	if d.QuestionnaireChanged {
		a.sessions.ApplyQuestionnaire(d.NewQuestionnaire)
	}
	if d.SummariserChanged {
		var sumOpts []docsum.Option
		if d.NewSummariser.Delay > 0 {
			sumOpts = append(sumOpts, docsum.WithDelay(d.NewSummariser.Delay))
		}
		sumOpts = append(sumOpts, docsum.WithLogger(a.log), docsum.WithMetrics(a.metrics))
		a.summariser = docsum.New(sumOpts...)
		a.log.Info("summariser reconfigured", "delay", d.NewSummariser.Delay)
	}
}

// Run serves HTTP with the given handler and drives background loops until
// ctx is cancelled. On cancellation the HTTP server drains in-flight requests
// for up to shutdownGrace before Run returns.
func (a *App) Run(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening", "addr", srv.Addr)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: http server: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if a.tracker != nil {
		g.Go(func() error {
			return a.tracker.Run(gctx)
		})
	}

	err := g.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return err
}

// Shutdown tears down all subsystems. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.log.Info("shutting down", "sessions", a.sessions.Count())
		a.sessions.CloseAll()
		a.log.Info("shutdown complete")
	})
	return ctx.Err()
}

// checkSpeech reports whether the speech providers are usable. The relay
// providers are healthy even when no browser is bound; they fail per call.
func (a *App) checkSpeech(_ context.Context) error {
	if a.providers.Speaker == nil || a.providers.Recognizer == nil {
		return errors.New("speech providers not configured")
	}
	return nil
}

// checkSessions always passes; it surfaces the live session count in logs
// for operators probing readiness.
func (a *App) checkSessions(_ context.Context) error {
	a.log.Debug("readiness probe", "sessions", a.sessions.Count())
	return nil
}
