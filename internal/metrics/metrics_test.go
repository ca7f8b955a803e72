package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FrameProcessed(10*time.Millisecond, nil)
	m.FrameProcessed(20*time.Millisecond, errors.New("backend down"))
	m.FrameDeduplicated()
	m.Classified(true)
	m.Classified(false)
	m.Classified(false)
	m.TokenCommitted()
	m.Speech("started")
	m.Speech("dropped")
	m.ClipEnqueued("hello")
	m.ClipPlayed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.detectErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.framesDeduplicated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokens.WithLabelValues("match")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.tokens.WithLabelValues("none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokensCommitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.speech.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clipsEnqueued.WithLabelValues("hello")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clipsPlayed))

	n, err := testutil.GatherAndCount(reg, "signlink_detect_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FrameProcessed(time.Millisecond, nil)
		m.FrameDeduplicated()
		m.Classified(true)
		m.TokenCommitted()
		m.Speech("started")
		m.ClipEnqueued("full")
		m.ClipPlayed()
	})
}

func TestNew_NilRegisterer(t *testing.T) {
	m := New(nil)
	m.TokenCommitted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokensCommitted))
}
