// Package app runs the interpreter session: it reads camera frames,
// classifies hand poses into words, builds sentences, speaks them and plays
// sign clips for typed text.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/ayusman/signlink/internal/capture"
	"github.com/ayusman/signlink/internal/clips"
	"github.com/ayusman/signlink/internal/detector"
	"github.com/ayusman/signlink/internal/frame"
	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/logging"
	"github.com/ayusman/signlink/internal/metrics"
	"github.com/ayusman/signlink/internal/sentence"
	"github.com/ayusman/signlink/internal/speech"
	"github.com/ayusman/signlink/internal/store"
	"github.com/ayusman/signlink/internal/translate"
)

// SeedMessage opens every new transcript.
const SeedMessage = "기타 검사 받으러 왔어요."

var (
	// ErrEmptyText is returned when submitted text is blank.
	ErrEmptyText = errors.New("empty message")
	// ErrTableActive is returned when removing the table in use.
	ErrTableActive = errors.New("mapping table is in use")
)

// Config wires the session's collaborators. Only Camera is required; the
// rest fall back to in-process defaults.
type Config struct {
	Store       *store.Store
	Camera      capture.Camera
	Detector    detector.Detector
	Tables      *gesture.Registry
	Table       string
	Synthesizer speech.Synthesizer
	SpeechRate  float64
	SpeechPitch float64
	Translator  translate.Translator
	Clips       *clips.Registry

	MotionThreshold float64
	IdleFPS         int
	ActiveFPS       int
	IdleTimeout     time.Duration

	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Snapshot is the observable session state.
type Snapshot struct {
	CameraOn       bool     `json:"camera_on"`
	Displayed      string   `json:"displayed"`
	Sentence       string   `json:"sentence"`
	State          string   `json:"state"`
	Speaking       bool     `json:"speaking"`
	Description    string   `json:"description"`
	Table          string   `json:"table"`
	Clip           string   `json:"clip,omitempty"`
	PendingClips   []string `json:"pending_clips"`
	FrameTimestamp int64    `json:"frame_timestamp"`
	Error          string   `json:"error,omitempty"`
}

// App is one interpreter session.
type App struct {
	log        *slog.Logger
	clock      clock.Clock
	metrics    *metrics.Metrics
	camera     capture.Camera
	motion     *capture.MotionDetector
	governor   *capture.RateGovernor
	detector   detector.Detector
	tables     *gesture.Registry
	settings   *store.SettingsRepository
	dispatcher *speech.Dispatcher
	player     *clips.Player
	translator translate.Translator
	transcript transcript

	// camMu serializes whole camera on/off transitions; mu is released while
	// the loop drains.
	camMu sync.Mutex

	// mu serializes every trigger and frame so the builder and coordinator
	// see them in arrival order.
	mu          sync.Mutex
	coordinator *frame.Coordinator
	builder     *sentence.Builder
	table       *gesture.MappingTable
	cameraOn    bool
	description string
	lastErr     string
	jpeg        []byte
	jpegTS      int64
	stopCh      chan struct{}
	loopDone    chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a session. The camera stays off until SetCamera(true).
func New(cfg Config) (*App, error) {
	if cfg.Camera == nil {
		return nil, errors.New("app: camera is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.MotionThreshold <= 0 {
		cfg.MotionThreshold = 1.0
	}
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = 5
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = 15
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 2 * time.Second
	}
	if cfg.Translator == nil {
		cfg.Translator = translate.NewSimulated()
	}
	if cfg.Clips == nil {
		cfg.Clips = clips.DefaultRegistry()
	}
	if cfg.Detector == nil {
		cfg.Logger.Warn("no recognition backend configured, using mock detector")
		cfg.Detector = detector.NewMockDetector()
	}
	if cfg.Tables == nil {
		reg, err := gesture.DefaultRegistry()
		if err != nil {
			return nil, fmt.Errorf("app: load mapping tables: %w", err)
		}
		cfg.Tables = reg
	}

	a := &App{
		log:         cfg.Logger,
		clock:       cfg.Clock,
		metrics:     cfg.Metrics,
		camera:      cfg.Camera,
		motion:      capture.NewMotionDetector(cfg.MotionThreshold),
		governor:    capture.NewRateGovernor(cfg.IdleFPS, cfg.ActiveFPS, cfg.IdleTimeout, cfg.Clock),
		detector:    cfg.Detector,
		tables:      cfg.Tables,
		player:      clips.NewPlayer(cfg.Clips, cfg.Metrics),
		translator:  cfg.Translator,
		description: translate.DefaultDescription,
		subs:        make(map[int]chan Snapshot),
		quit:        make(chan struct{}),
	}

	a.dispatcher = speech.NewDispatcher(cfg.Synthesizer,
		speech.WithLogger(cfg.Logger),
		speech.WithMetrics(cfg.Metrics),
		speech.WithProsody(cfg.SpeechRate, cfg.SpeechPitch),
	)

	if cfg.Store != nil {
		a.settings = cfg.Store.Settings()
		a.transcript = cfg.Store.Messages()
		if err := a.loadStoredTables(cfg.Store.Tables()); err != nil {
			return nil, err
		}
	} else {
		a.transcript = &memoryTranscript{}
	}
	if err := a.seedTranscript(); err != nil {
		return nil, fmt.Errorf("app: seed transcript: %w", err)
	}

	name := cfg.Table
	if name == "" && a.settings != nil {
		if saved, err := a.settings.Get(store.SettingActiveTable); err == nil {
			name = saved
		}
	}
	if name == "" {
		name = "ko-basic"
	}
	table, err := a.tables.Get(name)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	a.table = table
	classifier := gesture.NewClassifier(table)
	a.coordinator = frame.NewCoordinator(cfg.Detector, classifier, cfg.Clock, cfg.Metrics)
	a.builder = sentence.NewBuilder(a.dispatcher, localeOf(table), cfg.Metrics)

	a.wg.Add(1)
	go a.watchSpeech()

	return a, nil
}

func localeOf(t *gesture.MappingTable) string {
	if t.Locale() == "" {
		return speech.DefaultLocale
	}
	return t.Locale()
}

// Close stops the camera loop and releases the backend.
func (a *App) Close() error {
	a.SetCamera(false)
	a.dispatcher.Cancel()
	a.quitOnce.Do(func() { close(a.quit) })
	a.wg.Wait()

	a.motion.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			return fmt.Errorf("close detector: %w", err)
		}
	}
	return nil
}

func (a *App) watchSpeech() {
	defer a.wg.Done()
	for {
		select {
		case <-a.quit:
			return
		case ev := <-a.dispatcher.Events():
			if ev.Err != nil {
				a.log.Warn("speech failed", "utterance", ev.UtteranceID, "error", ev.Err)
			}
			a.publish()
		}
	}
}

// Commit appends the displayed word to the sentence. It does nothing while
// the camera is off.
func (a *App) Commit() bool {
	a.mu.Lock()
	ok := a.cameraOn && a.builder.OnCommit()
	a.mu.Unlock()
	if ok {
		a.publish()
	}
	return ok
}

// Reset clears the sentence and stops speech. It does nothing while the
// camera is off.
func (a *App) Reset() bool {
	a.mu.Lock()
	on := a.cameraOn
	if on {
		a.builder.OnReset()
	}
	a.mu.Unlock()
	if on {
		a.publish()
	}
	return on
}

// Speak hands the sentence to speech and records it in the transcript.
func (a *App) Speak() (*store.Message, bool) {
	a.mu.Lock()
	if !a.cameraOn {
		a.mu.Unlock()
		return nil, false
	}
	text, ok := a.builder.OnSpeak()
	a.mu.Unlock()
	if !ok {
		return nil, false
	}

	msg := a.newMessage(text, store.SourceSpeech)
	if err := a.transcript.Create(msg); err != nil {
		a.log.Error("record spoken sentence", "error", err)
	}
	a.publish()
	return msg, true
}

// SubmitText records typed text, queues matching sign clips and updates the
// sign description from the translator.
func (a *App) SubmitText(ctx context.Context, text string) (*store.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	msg := a.newMessage(text, store.SourceTyped)
	if err := a.transcript.Create(msg); err != nil {
		return nil, fmt.Errorf("record message: %w", err)
	}
	if added := a.player.EnqueueFromText(text); len(added) > 0 {
		a.log.Debug("clips queued", "clips", added)
	}
	a.publish()

	a.mu.Lock()
	current := a.description
	a.mu.Unlock()

	desc := translate.Describe(ctx, a.translator, text, current)

	a.mu.Lock()
	a.description = desc
	a.mu.Unlock()
	a.publish()

	return msg, nil
}

// ClipEnded advances the clip queue. It returns the next clip, or false when
// the idle placeholder should be shown.
func (a *App) ClipEnded() (clips.ID, bool) {
	id, ok := a.player.OnPlaybackEnded()
	a.publish()
	return id, ok
}

// Clips returns the clip catalogue.
func (a *App) Clips() *clips.Registry {
	return a.player.Registry()
}

// Messages returns up to limit transcript entries, oldest first.
func (a *App) Messages(limit int) ([]*store.Message, error) {
	return a.transcript.List(limit)
}

// CameraOn reports whether the frame loop is running.
func (a *App) CameraOn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cameraOn
}

// Displayed returns the word currently recognized.
func (a *App) Displayed() gesture.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.builder.Displayed()
}

// Snapshot returns the current session state.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	s := Snapshot{
		CameraOn:       a.cameraOn,
		Displayed:      string(a.builder.Displayed()),
		Sentence:       a.builder.Sentence(),
		State:          a.builder.State().String(),
		Description:    a.description,
		Table:          a.table.Name(),
		FrameTimestamp: a.coordinator.LastTimestamp(),
		Error:          a.lastErr,
	}
	a.mu.Unlock()

	if s.CameraOn && s.Displayed == "" {
		s.Displayed = string(gesture.NoGestureMarker)
	}
	s.Speaking = a.dispatcher.InFlight()

	pending := a.player.Pending()
	s.PendingClips = make([]string, len(pending))
	for i, id := range pending {
		s.PendingClips[i] = string(id)
	}
	if len(pending) > 0 {
		s.Clip = string(pending[0])
	}
	return s
}

// Subscribe delivers a Snapshot after every state change. Slow subscribers
// miss intermediate snapshots. Call the returned function to unsubscribe.
func (a *App) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
		})
	}
}

func (a *App) publish() {
	a.subMu.Lock()
	if len(a.subs) == 0 {
		a.subMu.Unlock()
		return
	}
	a.subMu.Unlock()

	snap := a.Snapshot()

	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (a *App) newMessage(text string, source store.Source) *store.Message {
	return &store.Message{
		ID:        uuid.New().String(),
		Text:      text,
		Sender:    store.SenderUser,
		Source:    source,
		CreatedAt: a.clock.Now(),
	}
}
