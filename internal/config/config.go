// Package config provides the configuration schema, loader, and provider registry
// for the Pulseaid emergency questionnaire server.
package config

import "time"

// LogLevel controls log verbosity for the Pulseaid server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Pulseaid.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Questionnaire QuestionnaireConfig `yaml:"questionnaire"`
	Tracker       TrackerConfig       `yaml:"tracker"`
	Summariser    SummariserConfig    `yaml:"summariser"`
}

// ServerConfig holds network and logging settings for the Pulseaid server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which implementation to use for each speech
// direction. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	// Recognizer converts the caller's speech to text.
	Recognizer ProviderEntry `yaml:"recognizer"`

	// Speaker voices question prompts to the caller.
	Speaker ProviderEntry `yaml:"speaker"`
}

// ProviderEntry is the common configuration block shared by both provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "deepgram", "relay").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// Model selects a specific model within the provider (e.g., "nova-3").
	Model string `yaml:"model"`

	// Language is a BCP-47 language tag for recognition (e.g., "en", "te").
	Language string `yaml:"language"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// QuestionnaireConfig tunes the answer-window behaviour of questionnaire sessions.
// Zero durations fall back to the engine defaults.
type QuestionnaireConfig struct {
	// DefaultVariant is the questionnaire asked when a session is created
	// without an explicit variant (e.g., "general", "hospital", "dispatch").
	DefaultVariant string `yaml:"default_variant"`

	// FreeTextTimeout bounds the answer window for free-text questions.
	FreeTextTimeout time.Duration `yaml:"free_text_timeout"`

	// StructuredTimeout bounds the answer window for single-choice and
	// location-pick questions.
	StructuredTimeout time.Duration `yaml:"structured_timeout"`

	// SkipAckTimeout bounds how long the engine waits for the spoken
	// skip acknowledgement to finish before moving on.
	SkipAckTimeout time.Duration `yaml:"skip_ack_timeout"`

	// AckPhrase overrides the phrase spoken when a question is skipped.
	AckPhrase string `yaml:"ack_phrase"`
}

// TrackerConfig tunes the ambulance tracking simulation.
type TrackerConfig struct {
	// Enabled starts the tracker loop at boot. Defaults to false.
	Enabled bool `yaml:"enabled"`

	// Tick is the interval between position updates.
	Tick time.Duration `yaml:"tick"`

	// InitialETAMinutes is the estimated arrival time at the first tick.
	InitialETAMinutes float64 `yaml:"initial_eta_minutes"`

	// InitialDistanceKM is the route distance at the first tick.
	InitialDistanceKM float64 `yaml:"initial_distance_km"`

	// Jitter is the maximum per-tick coordinate wander in degrees.
	Jitter float64 `yaml:"jitter"`
}

// SummariserConfig tunes the document summarisation service.
type SummariserConfig struct {
	// Delay is the artificial processing time per document.
	Delay time.Duration `yaml:"delay"`
}
