package speech

import "sync"

// MockSynthesizer is a Synthesizer for tests. Utterances stay in flight
// until Complete or Fail is called.
type MockSynthesizer struct {
	mu      sync.Mutex
	voices  []Voice
	spoken  []Utterance
	pending []chan error
	cancels int
	refuse  error
}

// NewMockSynthesizer creates a MockSynthesizer offering voices.
func NewMockSynthesizer(voices ...Voice) *MockSynthesizer {
	return &MockSynthesizer{voices: voices}
}

// Voices returns the configured voices.
func (m *MockSynthesizer) Voices() []Voice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Voice(nil), m.voices...)
}

// Speak records u and returns a channel resolved by Complete or Fail.
func (m *MockSynthesizer) Speak(u Utterance) (<-chan error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refuse != nil {
		return nil, m.refuse
	}
	done := make(chan error, 1)
	m.spoken = append(m.spoken, u)
	m.pending = append(m.pending, done)
	return done, nil
}

// Cancel counts the call. It does not resolve pending utterances, which
// mirrors backends that never fire a callback after cancellation.
func (m *MockSynthesizer) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
}

// Refuse makes subsequent Speak calls fail with err.
func (m *MockSynthesizer) Refuse(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refuse = err
}

// Complete resolves the oldest pending utterance successfully.
func (m *MockSynthesizer) Complete() bool {
	return m.resolve(nil)
}

// Fail resolves the oldest pending utterance with err.
func (m *MockSynthesizer) Fail(err error) bool {
	return m.resolve(err)
}

func (m *MockSynthesizer) resolve(err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return false
	}
	done := m.pending[0]
	m.pending = m.pending[1:]
	done <- err
	close(done)
	return true
}

// Spoken returns every utterance accepted so far.
func (m *MockSynthesizer) Spoken() []Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Utterance(nil), m.spoken...)
}

// Cancels returns how many times Cancel was called.
func (m *MockSynthesizer) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}
