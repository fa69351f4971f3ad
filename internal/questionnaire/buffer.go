package questionnaire

// Buffers holds the per-question input state: the latest transcript, the
// latest manual text, and an optional structured selection. Every slot is
// last-write-wins; a new value replaces the previous one wholesale.
//
// Buffers is owned by the session run loop. All writes happen on that one
// goroutine, multiplexed from the input channels, so no locking is needed:
// the resolver reads at a single well-defined point after the triggering
// event.
type Buffers struct {
	transcript   string
	manual       string
	selection    string
	hasSelection bool
}

// SetTranscript replaces the transcript slot.
func (b *Buffers) SetTranscript(text string) { b.transcript = text }

// SetManual replaces the manual-text slot.
func (b *Buffers) SetManual(text string) { b.manual = text }

// Select records a structured selection (choice label or location name).
// A later selection replaces an earlier one.
func (b *Buffers) Select(label string) {
	b.selection = label
	b.hasSelection = true
}

// Transcript returns the current transcript slot.
func (b *Buffers) Transcript() string { return b.transcript }

// Manual returns the current manual-text slot.
func (b *Buffers) Manual() string { return b.manual }

// Selection returns the structured selection and whether one was made. An
// empty-label selection still counts as made.
func (b *Buffers) Selection() (string, bool) { return b.selection, b.hasSelection }

// Reset clears every slot. Called on entry to each listening window so one
// question's input can never bleed into the next.
func (b *Buffers) Reset() {
	*b = Buffers{}
}
