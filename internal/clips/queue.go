package clips

import (
	"strings"
	"sync"

	"github.com/ayusman/signlink/internal/metrics"
)

// Player is a FIFO of clips. The head is the clip currently playing.
type Player struct {
	registry *Registry
	metrics  *metrics.Metrics

	mu    sync.Mutex
	queue []ID
}

// NewPlayer creates a Player that scans text with registry's triggers.
func NewPlayer(registry *Registry, m *metrics.Metrics) *Player {
	return &Player{registry: registry, metrics: m}
}

// Registry returns the clip catalogue.
func (p *Player) Registry() *Registry {
	return p.registry
}

// EnqueueFromText appends one clip for every trigger phrase contained in
// text. Clips are appended in trigger order, not in the order the phrases
// appear in text. The head is never replaced. Returns the appended IDs.
func (p *Player) EnqueueFromText(text string) []ID {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	var added []ID
	for _, t := range p.registry.triggers {
		if strings.Contains(normalized, t.Phrase) {
			added = append(added, t.Clip)
		}
	}
	if len(added) == 0 {
		return nil
	}

	p.mu.Lock()
	p.queue = append(p.queue, added...)
	p.mu.Unlock()

	for _, id := range added {
		p.metrics.ClipEnqueued(string(id))
	}
	return added
}

// OnPlaybackEnded pops the head. It returns the new head, or false when
// the queue is empty and the idle placeholder should be shown.
func (p *Player) OnPlaybackEnded() (ID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return "", false
	}
	p.queue = p.queue[1:]
	p.metrics.ClipPlayed()

	if len(p.queue) == 0 {
		p.queue = nil
		return "", false
	}
	return p.queue[0], true
}

// Head returns the clip currently playing.
func (p *Player) Head() (ID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return "", false
	}
	return p.queue[0], true
}

// Pending returns a copy of the queue, head first.
func (p *Player) Pending() []ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ID(nil), p.queue...)
}

// Clear empties the queue.
func (p *Player) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
}
