package app

import (
	"sync"

	"github.com/ayusman/signlink/internal/store"
)

type transcript interface {
	Create(m *store.Message) error
	List(limit int) ([]*store.Message, error)
}

// memoryTranscript is used when the session runs without a database.
type memoryTranscript struct {
	mu       sync.Mutex
	messages []*store.Message
}

func (t *memoryTranscript) Create(m *store.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *m
	t.messages = append(t.messages, &cp)
	return nil
}

func (t *memoryTranscript) List(limit int) ([]*store.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start := 0
	if limit > 0 && len(t.messages) > limit {
		start = len(t.messages) - limit
	}
	out := make([]*store.Message, 0, len(t.messages)-start)
	for _, m := range t.messages[start:] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (a *App) seedTranscript() error {
	existing, err := a.transcript.List(1)
	if err != nil || len(existing) > 0 {
		return err
	}
	seed := a.newMessage(SeedMessage, store.SourceTyped)
	seed.Sender = store.SenderSystem
	return a.transcript.Create(seed)
}
