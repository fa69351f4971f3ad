package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// QuestionnaireChanged is true if any answer-window timeout, the
	// skip acknowledgement phrase, or the default variant changed.
	// Applies to sessions created after the reload; running sessions
	// keep the windows they started with.
	QuestionnaireChanged bool
	NewQuestionnaire     QuestionnaireConfig

	// SummariserChanged is true if the summariser delay changed.
	SummariserChanged bool
	NewSummariser     SummariserConfig
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.QuestionnaireChanged || d.SummariserChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart; server
// address, TLS, provider selection, and the tracker route require one.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Questionnaire != new.Questionnaire {
		d.QuestionnaireChanged = true
		d.NewQuestionnaire = new.Questionnaire
	}

	if old.Summariser != new.Summariser {
		d.SummariserChanged = true
		d.NewSummariser = new.Summariser
	}

	return d
}
