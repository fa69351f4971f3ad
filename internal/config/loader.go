package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"recognizer": {"deepgram", "relay", "mock"},
	"speaker":    {"relay", "mock"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when server.tls is set"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when server.tls is set"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("recognizer", cfg.Providers.Recognizer.Name)
	validateProviderName("speaker", cfg.Providers.Speaker.Name)

	if cfg.Providers.Recognizer.Name == "deepgram" && cfg.Providers.Recognizer.APIKey == "" {
		errs = append(errs, errors.New("providers.recognizer.api_key is required for the deepgram provider"))
	}

	// Questionnaire
	q := cfg.Questionnaire
	if q.FreeTextTimeout < 0 {
		errs = append(errs, fmt.Errorf("questionnaire.free_text_timeout %v must not be negative", q.FreeTextTimeout))
	}
	if q.StructuredTimeout < 0 {
		errs = append(errs, fmt.Errorf("questionnaire.structured_timeout %v must not be negative", q.StructuredTimeout))
	}
	if q.SkipAckTimeout < 0 {
		errs = append(errs, fmt.Errorf("questionnaire.skip_ack_timeout %v must not be negative", q.SkipAckTimeout))
	}
	if q.FreeTextTimeout > 0 && q.StructuredTimeout > 0 && q.StructuredTimeout < q.FreeTextTimeout {
		slog.Warn("structured answer window is shorter than the free-text window; callers may run out of time picking a choice",
			"free_text", q.FreeTextTimeout,
			"structured", q.StructuredTimeout,
		)
	}

	// Tracker
	t := cfg.Tracker
	if t.Tick < 0 {
		errs = append(errs, fmt.Errorf("tracker.tick %v must not be negative", t.Tick))
	}
	if t.InitialETAMinutes < 0 {
		errs = append(errs, fmt.Errorf("tracker.initial_eta_minutes %.2f must not be negative", t.InitialETAMinutes))
	}
	if t.InitialDistanceKM < 0 {
		errs = append(errs, fmt.Errorf("tracker.initial_distance_km %.2f must not be negative", t.InitialDistanceKM))
	}
	if t.Jitter < 0 {
		errs = append(errs, fmt.Errorf("tracker.jitter %.5f must not be negative", t.Jitter))
	}

	// Summariser
	if cfg.Summariser.Delay < 0 {
		errs = append(errs, fmt.Errorf("summariser.delay %v must not be negative", cfg.Summariser.Delay))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
