// Package report turns a completed answer vector into the emergency report:
// plain text via positional template substitution, and PDF export for
// download.
package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownVariant is returned when no template exists for a variant.
var ErrUnknownVariant = errors.New("report: unknown variant")

// template is a positional report template. Placeholders {0}..{n-1} are
// replaced with the answer at that index.
type template struct {
	slots int
	text  string
}

var templates = map[string]template{
	"general": {
		slots: 5,
		text: "Emergency Report Summary:\n" +
			"Patient is a {0} {1}, {4}, reporting {2} for {3}. Immediate medical attention recommended.",
	},
	"hospital": {
		slots: 10,
		text: "Emergency Medical Report:\n" +
			"Patient: {0} {1}\n" +
			"Condition: {4}\n" +
			"Symptoms: {2} (Duration: {3})\n" +
			"Vitals: BP {5}, HR {6}, Temp {7}\n" +
			"History: {8}\n" +
			"Allergies: {9}\n" +
			"\n" +
			"Recommendation: Immediate emergency care required based on presenting symptoms and vital signs.",
	},
	"dispatch": {
		slots: 4,
		text: "Ambulance Dispatch Report:\n" +
			"Pickup: {0}\n" +
			"Destination: {1}\n" +
			"Condition: {2}\n" +
			"Caller contact: {3}\n" +
			"\n" +
			"Recommendation: Dispatch confirmed. Keep the caller's line reachable until the ambulance arrives.",
	},
}

// Compose renders the report for a variant from its completed answer vector.
// It is a pure function: identical input yields byte-identical output.
//
// An answer vector whose length does not match the variant's question count
// is a programming error and panics; the state machine guarantees the vector
// is complete before composing.
func Compose(variant string, answers []string) (string, error) {
	tpl, ok := templates[variant]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}
	if len(answers) != tpl.slots {
		panic(fmt.Sprintf("report: Compose(%q) called with %d answers, want %d",
			variant, len(answers), tpl.slots))
	}

	// Single scan over the template. Answer text is emitted verbatim and
	// never re-scanned, so an answer containing a literal {n} token passes
	// through untouched.
	var b strings.Builder
	b.Grow(len(tpl.text))
	rest := tpl.text
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			break
		}
		idx, err := strconv.Atoi(rest[open+1 : open+end])
		if err != nil || idx < 0 || idx >= len(answers) {
			b.WriteString(rest[:open+1])
			rest = rest[open+1:]
			continue
		}
		b.WriteString(rest[:open])
		b.WriteString(answers[idx])
		rest = rest[open+end+1:]
	}
	return b.String(), nil
}

// Slots returns the answer count a variant's template expects, for callers
// that validate before composing. ok is false for unknown variants.
func Slots(variant string) (int, bool) {
	tpl, ok := templates[variant]
	return tpl.slots, ok
}
