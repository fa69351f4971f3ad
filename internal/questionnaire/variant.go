// Package questionnaire implements the voice-driven sequential questionnaire
// engine: variant definitions, per-question answer buffers, the answer
// resolver, and the session state machine that drives one emergency-report
// run from the first question to the composed report.
package questionnaire

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when a variant name does not match any
// registered questionnaire.
var ErrUnknownVariant = errors.New("questionnaire: unknown variant")

// InputKind describes how a question collects its manual answer. Every kind
// also accepts voice input.
type InputKind string

const (
	// KindFreeText accepts arbitrary typed or spoken text.
	KindFreeText InputKind = "free-text"

	// KindSingleChoice presents a fixed choice list; the resolved answer is
	// the chosen label.
	KindSingleChoice InputKind = "single-choice"

	// KindLocationPick presents the hospital directory; the resolved answer
	// is the picked location name.
	KindLocationPick InputKind = "location-pick"
)

// QuestionSpec describes one question of a variant.
type QuestionSpec struct {
	// ID is stable within the variant, used in telemetry and API payloads.
	ID string `json:"id"`

	// Text is the prompt, read aloud and displayed verbatim.
	Text string `json:"text"`

	// Kind selects the manual input mechanism.
	Kind InputKind `json:"kind"`

	// Choices lists the selectable labels for KindSingleChoice. Empty for
	// other kinds.
	Choices []string `json:"choices,omitempty"`
}

// Structured reports whether the question presents structured manual input
// rather than free text. Structured questions get the longer listen window.
func (q QuestionSpec) Structured() bool {
	return q.Kind != KindFreeText
}

// Variant is a named, ordered question list.
type Variant struct {
	// Name identifies the variant in API calls and config.
	Name string `json:"name"`

	// Title is the human-readable heading shown by clients.
	Title string `json:"title"`

	// Questions are asked strictly in order.
	Questions []QuestionSpec `json:"questions"`
}

// builtins holds the registered variants in presentation order.
var builtins = []Variant{
	{
		Name:  "general",
		Title: "General Emergency",
		Questions: []QuestionSpec{
			{ID: "age", Text: "What is the patient's age?", Kind: KindFreeText},
			{ID: "gender", Text: "What is the patient's gender?", Kind: KindFreeText},
			{ID: "symptoms", Text: "What symptoms do you observe?", Kind: KindFreeText},
			{ID: "duration", Text: "How long have the symptoms been present?", Kind: KindFreeText},
			{ID: "consciousness", Text: "Is the patient conscious or unconscious?", Kind: KindFreeText},
		},
	},
	{
		Name:  "hospital",
		Title: "Hospital Staff",
		Questions: []QuestionSpec{
			{ID: "age", Text: "What is the patient's age?", Kind: KindFreeText},
			{ID: "gender", Text: "What is the patient's gender?", Kind: KindSingleChoice,
				Choices: []string{"Male", "Female", "Other"}},
			{ID: "symptoms", Text: "What symptoms do you observe?", Kind: KindFreeText},
			{ID: "duration", Text: "How long have the symptoms been present?", Kind: KindFreeText},
			{ID: "consciousness", Text: "Is the patient conscious or unconscious?", Kind: KindSingleChoice,
				Choices: []string{"Conscious", "Conscious but in distress", "Unconscious"}},
			{ID: "blood_pressure", Text: "What is the patient's blood pressure?", Kind: KindFreeText},
			{ID: "pulse", Text: "What is the patient's pulse rate?", Kind: KindFreeText},
			{ID: "temperature", Text: "What is the patient's body temperature?", Kind: KindFreeText},
			{ID: "history", Text: "Does the patient have any known medical history?", Kind: KindFreeText},
			{ID: "allergies", Text: "Does the patient have any known allergies?", Kind: KindFreeText},
		},
	},
	{
		Name:  "dispatch",
		Title: "Ambulance Dispatch",
		Questions: []QuestionSpec{
			{ID: "pickup", Text: "Where should the ambulance pick up the patient?", Kind: KindFreeText},
			{ID: "destination", Text: "Which hospital should the patient be taken to?", Kind: KindLocationPick},
			{ID: "condition", Text: "What is the patient's current condition?", Kind: KindFreeText},
			{ID: "contact", Text: "What is the caller's contact number?", Kind: KindFreeText},
		},
	},
}

// Variants returns all registered variants in presentation order. The
// returned slice is shared; callers must not modify it.
func Variants() []Variant {
	return builtins
}

// VariantByName looks up a registered variant. Returns ErrUnknownVariant
// wrapped with the requested name when no variant matches.
func VariantByName(name string) (Variant, error) {
	for _, v := range builtins {
		if v.Name == name {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}
