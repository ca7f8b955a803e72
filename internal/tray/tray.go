// Package tray puts the interpreter's triggers in the system tray.
package tray

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/getlantern/systray"

	"github.com/ayusman/signlink/internal/app"
	"github.com/ayusman/signlink/internal/store"
)

// Session is the part of the interpreter the tray drives.
type Session interface {
	ToggleCamera() (bool, error)
	Commit() bool
	Reset() bool
	Speak() (*store.Message, bool)
	Snapshot() app.Snapshot
	Subscribe() (<-chan app.Snapshot, func())
}

const maxSentenceRunes = 24

// Labels are the menu titles for one snapshot.
type Labels struct {
	Camera   string
	Word     string
	Sentence string
	Speaking bool
}

// LabelsFor renders a snapshot for the menu.
func LabelsFor(s app.Snapshot) Labels {
	l := Labels{Camera: "○ Camera off", Word: "Word: none", Sentence: "Sentence: empty", Speaking: s.Speaking}
	if s.CameraOn {
		l.Camera = "● Camera on"
	}
	if s.Displayed != "" {
		l.Word = "Word: " + s.Displayed
	}
	if s.Sentence != "" {
		l.Sentence = "Sentence: " + truncate(s.Sentence, maxSentenceRunes)
	}
	return l
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

// Tray is the system tray menu.
type Tray struct {
	session Session
	log     *slog.Logger

	mu         sync.RWMutex
	onSettings func()
	onQuit     func()

	menuCamera   *systray.MenuItem
	menuWord     *systray.MenuItem
	menuSentence *systray.MenuItem
	menuSpeak    *systray.MenuItem

	unsubscribe func()
}

// New creates a Tray for session.
func New(session Session, log *slog.Logger) *Tray {
	return &Tray{session: session, log: log}
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run blocks until Quit is chosen.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("SignLink")
	systray.SetTooltip("SignLink sign language interpreter")

	t.menuCamera = systray.AddMenuItem("○ Camera off", "Start or stop recognition")
	systray.AddSeparator()

	t.menuWord = systray.AddMenuItem("Word: none", "Recognized word")
	t.menuWord.Disable()
	t.menuSentence = systray.AddMenuItem("Sentence: empty", "Sentence so far")
	t.menuSentence.Disable()

	menuCommit := systray.AddMenuItem("Add word", "Append the recognized word")
	t.menuSpeak = systray.AddMenuItem("Speak", "Speak the sentence")
	menuReset := systray.AddMenuItem("Clear", "Clear the sentence")
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open in browser...", "Open the web interface")
	menuQuit := systray.AddMenuItem("Quit", "Quit SignLink")

	t.apply(LabelsFor(t.session.Snapshot()))

	updates, unsubscribe := t.session.Subscribe()
	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()

	go func() {
		for snap := range updates {
			t.apply(LabelsFor(snap))
		}
	}()

	go func() {
		for {
			select {
			case <-t.menuCamera.ClickedCh:
				if _, err := t.session.ToggleCamera(); err != nil {
					t.log.Error("toggle camera", "error", err)
				}
			case <-menuCommit.ClickedCh:
				t.session.Commit()
			case <-t.menuSpeak.ClickedCh:
				t.session.Speak()
			case <-menuReset.ClickedCh:
				t.session.Reset()
			case <-menuSettings.ClickedCh:
				t.call(t.onSettings)
			case <-menuQuit.ClickedCh:
				t.call(t.onQuit)
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (t *Tray) apply(l Labels) {
	t.menuCamera.SetTitle(l.Camera)
	t.menuWord.SetTitle(l.Word)
	t.menuSentence.SetTitle(l.Sentence)
	if l.Speaking {
		t.menuSpeak.Disable()
	} else {
		t.menuSpeak.Enable()
	}
}

func (t *Tray) call(fn func()) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if fn != nil {
		go fn()
	}
}
