// Package sentence assembles committed gesture tokens into a sentence.
package sentence

import (
	"strings"

	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/metrics"
	"github.com/ayusman/signlink/internal/speech"
)

// Separator follows every committed token.
const Separator = " "

// State of the builder.
type State int

const (
	// Idle means the sentence buffer is empty.
	Idle State = iota
	// Accumulating means at least one token has been committed.
	Accumulating
)

func (s State) String() string {
	if s == Accumulating {
		return "accumulating"
	}
	return "idle"
}

// Speaker is the speech capability the builder hands sentences to.
type Speaker interface {
	Speak(text, locale string) (speech.Utterance, bool)
	Cancel()
	InFlight() bool
}

// Builder turns committed tokens into a sentence. Every transition is
// total: a trigger that does not apply is a no-op. Builder is not safe for
// concurrent use; the session serializes triggers.
type Builder struct {
	speaker Speaker
	locale  string
	metrics *metrics.Metrics

	displayed gesture.Token
	buffer    strings.Builder
}

// NewBuilder creates a Builder that speaks in locale.
func NewBuilder(speaker Speaker, locale string, m *metrics.Metrics) *Builder {
	return &Builder{speaker: speaker, locale: locale, metrics: m}
}

// OnClassification replaces the displayed token. It never commits.
func (b *Builder) OnClassification(tok gesture.Token) {
	b.displayed = tok
}

// OnCommit appends the displayed token and a separator to the sentence and
// clears the display. Returns false if nothing was displayed.
func (b *Builder) OnCommit() bool {
	if b.displayed.IsEmpty() {
		return false
	}
	b.buffer.WriteString(string(b.displayed))
	b.buffer.WriteString(Separator)
	b.displayed = gesture.NoGesture
	b.metrics.TokenCommitted()
	return true
}

// OnReset clears the sentence and the display and cancels speech.
func (b *Builder) OnReset() {
	b.buffer.Reset()
	b.displayed = gesture.NoGesture
	if b.speaker != nil {
		b.speaker.Cancel()
	}
}

// OnSpeak hands the trimmed sentence to the speaker and clears the buffer.
// It is a no-op while speech is in flight or the sentence is blank.
// Returns the text handed over.
func (b *Builder) OnSpeak() (string, bool) {
	text := strings.TrimSpace(b.buffer.String())
	if text == "" || b.speaker == nil || b.speaker.InFlight() {
		return "", false
	}
	b.speaker.Speak(text, b.locale)
	b.buffer.Reset()
	return text, true
}

// SetLocale changes the speech locale, e.g. when the mapping table changes.
func (b *Builder) SetLocale(locale string) {
	b.locale = locale
}

// Displayed returns the token currently shown.
func (b *Builder) Displayed() gesture.Token {
	return b.displayed
}

// Sentence returns the sentence buffer including the trailing separator.
func (b *Builder) Sentence() string {
	return b.buffer.String()
}

// State reports Idle or Accumulating.
func (b *Builder) State() State {
	if b.buffer.Len() == 0 {
		return Idle
	}
	return Accumulating
}
