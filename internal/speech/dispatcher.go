// Package speech provides a single-flight dispatcher over a speech
// synthesis backend.
package speech

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/signlink/internal/metrics"
)

// Defaults applied when an utterance leaves them unset.
const (
	DefaultLocale = "ko-KR"
	DefaultRate   = 1.0
	DefaultPitch  = 1.0
)

// eventBuffer is the capacity of the Events channel.
const eventBuffer = 32

// ErrNoBackend is reported when no synthesis backend is configured.
var ErrNoBackend = errors.New("speech synthesis is not available")

// Voice is a synthesis voice offered by the backend.
type Voice struct {
	Name   string `json:"name" yaml:"name"`
	Locale string `json:"locale" yaml:"locale"`
}

// Utterance is one speech request.
type Utterance struct {
	ID     string
	Text   string
	Locale string
	Rate   float64
	Pitch  float64
	// Voice is nil when the backend default should be used.
	Voice *Voice
}

// Outcome is the terminal state of an utterance.
type Outcome int

const (
	Completed Outcome = iota
	Errored
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Errored:
		return "errored"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Event reports a state change of the dispatcher.
type Event struct {
	UtteranceID string
	Text        string
	// Started is true for the event emitted when an utterance begins.
	Started bool
	Outcome Outcome
	Err     error
}

// Synthesizer is the speech synthesis backend.
type Synthesizer interface {
	// Voices lists the voices the backend can use.
	Voices() []Voice

	// Speak starts u without blocking. The returned channel delivers exactly
	// one value, nil on completion or the failure, and is then closed.
	Speak(u Utterance) (<-chan error, error)

	// Cancel stops current playback and discards anything queued.
	Cancel()
}

// Dispatcher allows at most one utterance in flight. Requests made while
// one is in flight are dropped, not queued.
type Dispatcher struct {
	backend Synthesizer
	logger  *slog.Logger
	metrics *metrics.Metrics
	rate    float64
	pitch   float64

	mu      sync.Mutex
	current *Utterance

	events chan Event
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithProsody sets the rate and pitch used for every utterance.
func WithProsody(rate, pitch float64) Option {
	return func(d *Dispatcher) {
		if rate > 0 {
			d.rate = rate
		}
		if pitch > 0 {
			d.pitch = pitch
		}
	}
}

// NewDispatcher creates a Dispatcher. backend may be nil, in which case
// every request fails with ErrNoBackend.
func NewDispatcher(backend Synthesizer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		logger:  slog.Default(),
		rate:    DefaultRate,
		pitch:   DefaultPitch,
		events:  make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Events returns the channel of start and terminal events. Events are
// dropped when the buffer is full.
func (d *Dispatcher) Events() <-chan Event {
	return d.events
}

// InFlight reports whether an utterance is currently being spoken.
func (d *Dispatcher) InFlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil
}

// Speak starts speaking text. It returns false when the request was dropped
// because another utterance is in flight, or when the backend refused it.
func (d *Dispatcher) Speak(text, locale string) (Utterance, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Utterance{}, false
	}
	if locale == "" {
		locale = DefaultLocale
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		d.metrics.Speech("dropped")
		d.logger.Debug("speech dropped, utterance in flight", "in_flight", d.current.ID)
		return Utterance{}, false
	}

	u := Utterance{
		ID:     uuid.New().String(),
		Text:   text,
		Locale: locale,
		Rate:   d.rate,
		Pitch:  d.pitch,
	}

	if d.backend == nil {
		d.metrics.Speech("errored")
		d.emit(Event{UtteranceID: u.ID, Text: u.Text, Outcome: Errored, Err: ErrNoBackend})
		return u, false
	}

	u.Voice = SelectVoice(d.backend.Voices(), locale)

	d.current = &u
	// Flush anything the backend still has queued.
	d.backend.Cancel()

	done, err := d.backend.Speak(u)
	if err != nil {
		d.current = nil
		d.metrics.Speech("errored")
		d.logger.Error("speech backend refused utterance", "error", err)
		d.emit(Event{UtteranceID: u.ID, Text: u.Text, Outcome: Errored, Err: err})
		return u, false
	}

	d.metrics.Speech("started")
	d.logger.Info("speaking", "utterance", u.ID, "locale", locale, "voice", voiceName(u.Voice))
	d.emit(Event{UtteranceID: u.ID, Text: u.Text, Started: true})

	go d.await(u, done)
	return u, true
}

// Cancel stops the backend and clears the in-flight utterance, if any.
// A completion arriving afterwards is ignored.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.backend != nil {
		d.backend.Cancel()
	}
	if d.current == nil {
		return
	}

	u := d.current
	d.current = nil
	d.metrics.Speech("cancelled")
	d.emit(Event{UtteranceID: u.ID, Text: u.Text, Outcome: Cancelled})
}

func (d *Dispatcher) await(u Utterance, done <-chan error) {
	err, ok := <-done
	if !ok {
		err = nil
	}

	outcome := Completed
	if err != nil {
		outcome = Errored
	}
	d.finish(u, outcome, err)
}

// finish clears the in-flight utterance if it is still u.
func (d *Dispatcher) finish(u Utterance, outcome Outcome, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil || d.current.ID != u.ID {
		return
	}
	d.current = nil

	if err != nil {
		d.logger.Error("speech synthesis failed", "utterance", u.ID, "error", err)
	}
	d.metrics.Speech(outcome.String())
	d.emit(Event{UtteranceID: u.ID, Text: u.Text, Outcome: outcome, Err: err})
}

func (d *Dispatcher) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("speech event dropped", "utterance", ev.UtteranceID)
	}
}

// SelectVoice returns the first voice matching locale, or nil for the
// backend default. "ko-KR" and "ko_KR" are treated as equal.
func SelectVoice(voices []Voice, locale string) *Voice {
	want := normalizeLocale(locale)
	for i := range voices {
		if normalizeLocale(voices[i].Locale) == want {
			v := voices[i]
			return &v
		}
	}
	return nil
}

func normalizeLocale(l string) string {
	return strings.ToLower(strings.ReplaceAll(l, "_", "-"))
}

func voiceName(v *Voice) string {
	if v == nil {
		return "default"
	}
	return v.Name
}
