// Command pulseaid is the main entry point for the Pulseaid emergency-report
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/pulseaid/pulseaid/internal/api"
	"github.com/pulseaid/pulseaid/internal/app"
	"github.com/pulseaid/pulseaid/internal/config"
	"github.com/pulseaid/pulseaid/internal/observe"
	"github.com/pulseaid/pulseaid/internal/resilience"
	"github.com/pulseaid/pulseaid/pkg/speech/input"
	"github.com/pulseaid/pulseaid/pkg/speech/input/deepgram"
	inputmock "github.com/pulseaid/pulseaid/pkg/speech/input/mock"
	inputrelay "github.com/pulseaid/pulseaid/pkg/speech/input/relay"
	"github.com/pulseaid/pulseaid/pkg/speech/output"
	outputmock "github.com/pulseaid/pulseaid/pkg/speech/output/mock"
	outputrelay "github.com/pulseaid/pulseaid/pkg/speech/output/relay"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "pulseaid: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "pulseaid: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so a config reload can adjust it without
	// swapping the handler.
	level := new(slog.LevelVar)
	level.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("pulseaid starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "pulseaid"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Provider registry ─────────────────────────────────────────────────────
	// The relay instances are created up front so the websocket gateway can be
	// handed the same objects the session engine speaks and listens through.
	relaySpeaker := outputrelay.New()
	relayRecognizer := inputrelay.New()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, relaySpeaker, relayRecognizer)

	// ── Instantiate providers ─────────────────────────────────────────────────
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	// The gateway forwards browser-captured PCM into whichever recogniser
	// owns the current listening window.
	audioGateway := input.NewGateway(providers.Recognizer)
	providers.Recognizer = audioGateway

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(cfg, providers,
		app.WithLogger(logger),
		app.WithMetrics(metrics),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	apiCfg := api.Config{
		App:       application,
		AudioSink: audioGateway,
		Logger:    logger,
		Metrics:   metrics,
	}
	if providerName(cfg.Providers.Speaker) == "relay" {
		apiCfg.RelaySpeaker = relaySpeaker
	}
	if providerName(cfg.Providers.Recognizer) == "relay" {
		apiCfg.RelayRecognizer = relayRecognizer
	}
	handler := api.NewRouter(apiCfg)

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if !d.Any() {
			return
		}
		if d.LogLevelChanged {
			level.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		application.ApplyConfig(d)
	})
	if err != nil {
		// The file loaded once already; a watcher failure is not fatal.
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires the provider factories that ship with
// Pulseaid into reg. The relay factories return the shared instances bound to
// the websocket gateway.
func registerBuiltinProviders(reg *config.Registry, relaySpeaker *outputrelay.Speaker, relayRecognizer *inputrelay.Recognizer) {
	// ── Recognizers ───────────────────────────────────────────────────────────

	reg.RegisterRecognizer("deepgram", func(entry config.ProviderEntry) (input.Recognizer, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, deepgram.WithLanguage(entry.Language))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	reg.RegisterRecognizer("relay", func(config.ProviderEntry) (input.Recognizer, error) {
		return relayRecognizer, nil
	})

	reg.RegisterRecognizer("mock", func(config.ProviderEntry) (input.Recognizer, error) {
		return &inputmock.Recognizer{}, nil
	})

	// ── Speakers ──────────────────────────────────────────────────────────────

	reg.RegisterSpeaker("relay", func(config.ProviderEntry) (output.Speaker, error) {
		return relaySpeaker, nil
	})

	reg.RegisterSpeaker("mock", func(config.ProviderEntry) (output.Speaker, error) {
		return &outputmock.Speaker{}, nil
	})
}

// buildProviders instantiates the speaker and recognizer named in cfg using
// the registry. Unset names fall back to the browser relay, so a minimal
// config still produces a fully functional server. An options entry
// "fallback" names a second provider wired behind a circuit breaker.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	recEntry := cfg.Providers.Recognizer
	recEntry.Name = providerName(recEntry)
	rec, err := reg.CreateRecognizer(recEntry)
	if err != nil {
		return nil, fmt.Errorf("create recognizer provider %q: %w", recEntry.Name, err)
	}
	ps.Recognizer = rec
	slog.Info("provider created", "kind", "recognizer", "name", recEntry.Name)

	if fb := optString(recEntry.Options, "fallback"); fb != "" && fb != recEntry.Name {
		fbEntry := recEntry
		fbEntry.Name = fb
		fbEntry.Options = nil
		secondary, err := reg.CreateRecognizer(fbEntry)
		if err != nil {
			return nil, fmt.Errorf("create recognizer fallback %q: %w", fb, err)
		}
		group := resilience.NewRecognizerFallback(rec, recEntry.Name, resilience.FallbackConfig{})
		group.AddFallback(fb, secondary)
		ps.Recognizer = group
		slog.Info("recognizer failover enabled", "primary", recEntry.Name, "fallback", fb)
	}

	spkEntry := cfg.Providers.Speaker
	spkEntry.Name = providerName(spkEntry)
	spk, err := reg.CreateSpeaker(spkEntry)
	if err != nil {
		return nil, fmt.Errorf("create speaker provider %q: %w", spkEntry.Name, err)
	}
	ps.Speaker = spk
	slog.Info("provider created", "kind", "speaker", "name", spkEntry.Name)

	if fb := optString(spkEntry.Options, "fallback"); fb != "" && fb != spkEntry.Name {
		fbEntry := spkEntry
		fbEntry.Name = fb
		fbEntry.Options = nil
		secondary, err := reg.CreateSpeaker(fbEntry)
		if err != nil {
			return nil, fmt.Errorf("create speaker fallback %q: %w", fb, err)
		}
		group := resilience.NewSpeakerFallback(spk, spkEntry.Name, resilience.FallbackConfig{})
		group.AddFallback(fb, secondary)
		ps.Speaker = group
		slog.Info("speaker failover enabled", "primary", spkEntry.Name, "fallback", fb)
	}

	return ps, nil
}

// optString extracts a string value from a provider Options map. Returns ""
// if the map is nil, the key is absent, or the value is not a string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	v, ok := opts[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// providerName resolves the configured provider name, defaulting to the
// browser relay.
func providerName(entry config.ProviderEntry) string {
	if entry.Name == "" {
		return "relay"
	}
	return entry.Name
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Pulseaid — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("Recognizer", providerName(cfg.Providers.Recognizer), cfg.Providers.Recognizer.Model)
	printProvider("Speaker", providerName(cfg.Providers.Speaker), cfg.Providers.Speaker.Model)
	printField("Default variant", defaultString(cfg.Questionnaire.DefaultVariant, "general"))
	if cfg.Tracker.Enabled {
		printField("Tracker", "enabled")
	} else {
		printField("Tracker", "(disabled)")
	}
	if cfg.Server.TLS != nil {
		printField("TLS", "enabled")
	}
	if cfg.Server.ListenAddr != "" {
		printField("Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if model != "" {
		value = name + " / " + model
	}
	printField(kind, value)
}

func printField(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-15s : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
