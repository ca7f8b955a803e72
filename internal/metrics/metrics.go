// Package metrics exposes Prometheus collectors for the interpreter session.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	framesProcessed    prometheus.Counter
	framesDeduplicated prometheus.Counter
	detectErrors       prometheus.Counter
	detectDuration     prometheus.Histogram
	tokens             *prometheus.CounterVec
	tokensCommitted    prometheus.Counter
	speech             *prometheus.CounterVec
	clipsEnqueued      *prometheus.CounterVec
	clipsPlayed        prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg skips registration, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signlink_frames_processed_total",
			Help: "Frames handed to the recognition backend.",
		}),
		framesDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signlink_frames_deduplicated_total",
			Help: "Frames skipped because their timestamp was already processed.",
		}),
		detectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signlink_detect_errors_total",
			Help: "Recognition backend failures.",
		}),
		detectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signlink_detect_duration_seconds",
			Help:    "Time spent in the recognition backend per frame.",
			Buckets: []float64{.005, .01, .02, .033, .05, .1, .25},
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signlink_tokens_classified_total",
			Help: "Classification outcomes per processed frame.",
		}, []string{"result"}),
		tokensCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signlink_tokens_committed_total",
			Help: "Tokens appended to the sentence buffer.",
		}),
		speech: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signlink_speech_requests_total",
			Help: "Speech requests by outcome.",
		}, []string{"outcome"}),
		clipsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signlink_clips_enqueued_total",
			Help: "Clips appended to the playback queue.",
		}, []string{"clip"}),
		clipsPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signlink_clips_played_total",
			Help: "Clips that finished playing.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.framesProcessed,
			m.framesDeduplicated,
			m.detectErrors,
			m.detectDuration,
			m.tokens,
			m.tokensCommitted,
			m.speech,
			m.clipsEnqueued,
			m.clipsPlayed,
		)
	}
	return m
}

// FrameProcessed records a backend call and how long it took.
func (m *Metrics) FrameProcessed(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.framesProcessed.Inc()
	m.detectDuration.Observe(d.Seconds())
	if err != nil {
		m.detectErrors.Inc()
	}
}

// FrameDeduplicated records a skipped frame.
func (m *Metrics) FrameDeduplicated() {
	if m == nil {
		return
	}
	m.framesDeduplicated.Inc()
}

// Classified records whether a processed frame produced a token.
func (m *Metrics) Classified(matched bool) {
	if m == nil {
		return
	}
	if matched {
		m.tokens.WithLabelValues("match").Inc()
	} else {
		m.tokens.WithLabelValues("none").Inc()
	}
}

// TokenCommitted records a commit.
func (m *Metrics) TokenCommitted() {
	if m == nil {
		return
	}
	m.tokensCommitted.Inc()
}

// Speech records a speech request outcome such as "started" or "dropped".
func (m *Metrics) Speech(outcome string) {
	if m == nil {
		return
	}
	m.speech.WithLabelValues(outcome).Inc()
}

// ClipEnqueued records a clip added to the playback queue.
func (m *Metrics) ClipEnqueued(clip string) {
	if m == nil {
		return
	}
	m.clipsEnqueued.WithLabelValues(clip).Inc()
}

// ClipPlayed records a finished clip.
func (m *Metrics) ClipPlayed() {
	if m == nil {
		return
	}
	m.clipsPlayed.Inc()
}
