package sentence

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/speech"
)

func newBuilder(t *testing.T) (*Builder, *speech.Dispatcher, *speech.MockSynthesizer) {
	t.Helper()
	backend := speech.NewMockSynthesizer()
	d := speech.NewDispatcher(backend, speech.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewBuilder(d, "ko-KR", nil), d, backend
}

func TestBuilder_ClassificationDoesNotCommit(t *testing.T) {
	b, _, _ := newBuilder(t)

	for i := 0; i < 30; i++ {
		b.OnClassification("좋다")
	}
	assert.Equal(t, gesture.Token("좋다"), b.Displayed())
	assert.Empty(t, b.Sentence())
	assert.Equal(t, Idle, b.State())
}

func TestBuilder_Commit(t *testing.T) {
	b, _, _ := newBuilder(t)

	b.OnClassification("정말 좋아")
	require.True(t, b.OnCommit())
	assert.Equal(t, "정말 좋아 ", b.Sentence())
	assert.Equal(t, gesture.NoGesture, b.Displayed())
	assert.Equal(t, Accumulating, b.State())

	// Held pose: the display was cleared, so a second commit does nothing.
	assert.False(t, b.OnCommit())
	assert.Equal(t, "정말 좋아 ", b.Sentence())

	b.OnClassification("고마워")
	b.OnCommit()
	assert.Equal(t, "정말 좋아 고마워 ", b.Sentence())
}

func TestBuilder_CommitSentinelIsNoop(t *testing.T) {
	b, _, _ := newBuilder(t)
	b.OnClassification("힘")
	b.OnCommit()

	for _, tok := range []gesture.Token{gesture.NoGesture, gesture.NoGestureMarker} {
		b.OnClassification(tok)
		assert.False(t, b.OnCommit())
		assert.Equal(t, "힘 ", b.Sentence())
	}
}

func TestBuilder_ResetFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Builder)
	}{
		{"idle", func(b *Builder) {}},
		{"displayed only", func(b *Builder) { b.OnClassification("멈춰") }},
		{"accumulating", func(b *Builder) {
			b.OnClassification("멈춰")
			b.OnCommit()
			b.OnClassification("질문")
		}},
		{"speaking", func(b *Builder) {
			b.OnClassification("반가워")
			b.OnCommit()
			b.OnSpeak()
			b.OnClassification("힘")
			b.OnCommit()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, d, _ := newBuilder(t)
			tt.setup(b)

			b.OnReset()
			assert.Empty(t, b.Sentence())
			assert.Equal(t, gesture.NoGesture, b.Displayed())
			assert.False(t, d.InFlight())
			assert.Equal(t, Idle, b.State())
		})
	}
}

func TestBuilder_Speak(t *testing.T) {
	b, d, backend := newBuilder(t)

	b.OnClassification("반가워")
	b.OnCommit()
	b.OnClassification("고마워")
	b.OnCommit()

	text, ok := b.OnSpeak()
	require.True(t, ok)
	assert.Equal(t, "반가워 고마워", text)
	assert.Empty(t, b.Sentence())
	assert.True(t, d.InFlight())

	spoken := backend.Spoken()
	require.Len(t, spoken, 1)
	assert.Equal(t, "반가워 고마워", spoken[0].Text)
	assert.Equal(t, "ko-KR", spoken[0].Locale)
}

func TestBuilder_SpeakWhileInFlightKeepsSentence(t *testing.T) {
	b, d, backend := newBuilder(t)

	b.OnClassification("하나")
	b.OnCommit()
	b.OnSpeak()

	b.OnClassification("둘")
	b.OnCommit()
	_, ok := b.OnSpeak()
	assert.False(t, ok)
	assert.Equal(t, "둘 ", b.Sentence())

	backend.Complete()
	require.Eventually(t, func() bool { return !d.InFlight() }, time.Second, time.Millisecond)

	text, ok := b.OnSpeak()
	assert.True(t, ok)
	assert.Equal(t, "둘", text)
}

func TestBuilder_SpeakEmptyIsNoop(t *testing.T) {
	b, _, backend := newBuilder(t)

	_, ok := b.OnSpeak()
	assert.False(t, ok)
	assert.Empty(t, backend.Spoken())
}
