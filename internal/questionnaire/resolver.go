package questionnaire

import "strings"

// Sentinel answer values. These are answer strings, not errors: the composer
// substitutes them into report templates like any other answer.
const (
	// NoResponse is resolved when the listening window closes with every
	// buffer empty.
	NoResponse = "No response"

	// SkippedAnswer is resolved when the user skips a question, by voice or
	// by the skip action.
	SkippedAnswer = "Skipped"
)

// Outcome names how an answer was resolved, for telemetry.
type Outcome string

const (
	OutcomeSelection Outcome = "selection"
	OutcomeManual    Outcome = "manual"
	OutcomeVoice     Outcome = "voice"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeNone      Outcome = "none"
)

// IsSkip reports whether the trimmed buffer content is the standalone word
// "skip", case-insensitively. Longer utterances that merely contain the word
// ("don't skip", "Skippering") never match: a whole-buffer equality check is
// the only reading under which those must not trigger.
func IsSkip(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "skip")
}

// Resolve picks the canonical answer from the buffers at the resolution
// point, applying strict precedence: structured selection, then manual text,
// then transcript, then the NoResponse sentinel. Skip detection runs before
// precedence on the text slots only; a structured selection is never
// overridden by a spoken "skip".
func Resolve(b *Buffers) (string, Outcome) {
	if label, ok := b.Selection(); ok {
		return label, OutcomeSelection
	}
	manual := strings.TrimSpace(b.Manual())
	transcript := strings.TrimSpace(b.Transcript())
	if IsSkip(manual) || IsSkip(transcript) {
		return SkippedAnswer, OutcomeSkipped
	}
	if manual != "" {
		return manual, OutcomeManual
	}
	if transcript != "" {
		return transcript, OutcomeVoice
	}
	return NoResponse, OutcomeNone
}
