package config_test

import (
	"testing"
	"time"

	"github.com/pulseaid/pulseaid/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   config.LogInfo,
		},
		Questionnaire: config.QuestionnaireConfig{
			DefaultVariant:    "general",
			FreeTextTimeout:   3 * time.Second,
			StructuredTimeout: 5 * time.Second,
			SkipAckTimeout:    2 * time.Second,
		},
		Summariser: config.SummariserConfig{Delay: 3 * time.Second},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	d := config.Diff(old, new)
	if d.Any() {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestDiff_LogLevelChange(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("LogLevelChanged: got false, want true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel: got %q, want %q", d.NewLogLevel, config.LogDebug)
	}
	if d.QuestionnaireChanged || d.SummariserChanged {
		t.Errorf("unexpected extra changes: %+v", d)
	}
}

func TestDiff_QuestionnaireChange(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Questionnaire.FreeTextTimeout = 10 * time.Second

	d := config.Diff(old, new)
	if !d.QuestionnaireChanged {
		t.Error("QuestionnaireChanged: got false, want true")
	}
	if d.NewQuestionnaire.FreeTextTimeout != 10*time.Second {
		t.Errorf("NewQuestionnaire.FreeTextTimeout: got %v, want %v", d.NewQuestionnaire.FreeTextTimeout, 10*time.Second)
	}
}

func TestDiff_AckPhraseChange(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Questionnaire.AckPhrase = "Alright, moving on."

	d := config.Diff(old, new)
	if !d.QuestionnaireChanged {
		t.Error("QuestionnaireChanged: got false, want true")
	}
}

func TestDiff_SummariserChange(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Summariser.Delay = time.Second

	d := config.Diff(old, new)
	if !d.SummariserChanged {
		t.Error("SummariserChanged: got false, want true")
	}
	if d.NewSummariser.Delay != time.Second {
		t.Errorf("NewSummariser.Delay: got %v, want %v", d.NewSummariser.Delay, time.Second)
	}
}

func TestDiff_ServerAddrIgnored(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.ListenAddr = ":9090"

	d := config.Diff(old, new)
	if d.Any() {
		t.Errorf("listen_addr is not hot-reloadable, expected empty diff, got %+v", d)
	}
}
