package frame

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/signlink/internal/detector"
	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/metrics"
)

func newClassifier(t *testing.T) *gesture.Classifier {
	t.Helper()
	table, err := gesture.NewMappingTable("test", "", "", []gesture.Entry{
		{Hands: []string{"Open_Palm"}, Token: "stop"},
		{Hands: []string{"Thumb_Up"}, Token: "good"},
	})
	require.NoError(t, err)
	return gesture.NewClassifier(table)
}

func TestCoordinator_InitialState(t *testing.T) {
	c := NewCoordinator(detector.NewMockDetector(), newClassifier(t), clock.NewMock(), nil)
	assert.Equal(t, Never, c.LastTimestamp())
}

func TestCoordinator_DeduplicatesSameTimestamp(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetHands(detector.OpenPalmHand())
	c := NewCoordinator(mock, newClassifier(t), clock.NewMock(), nil)

	img := gocv.NewMat()
	defer img.Close()
	img2 := gocv.NewMat()
	defer img2.Close()

	first, last, err := c.MaybeClassify(100, &img)
	require.NoError(t, err)
	assert.Equal(t, int64(100), last)
	assert.Equal(t, gesture.Token("stop"), first.Token)

	// The backend now reports something else, but the timestamp has not moved.
	mock.SetHands(detector.ThumbsUpHand())
	second, last, err := c.MaybeClassify(100, &img2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), last)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.Calls())
}

func TestCoordinator_NewTimestampInvokesBackend(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetHands(detector.OpenPalmHand())
	clk := clock.NewMock()
	c := NewCoordinator(mock, newClassifier(t), clk, nil)

	img := gocv.NewMat()
	defer img.Close()

	_, _, err := c.MaybeClassify(100, &img)
	require.NoError(t, err)

	clk.Add(33 * time.Millisecond)
	mock.SetHands(detector.ThumbsUpHand())
	res, last, err := c.MaybeClassify(133, &img)
	require.NoError(t, err)

	assert.Equal(t, int64(133), last)
	assert.Equal(t, gesture.Token("good"), res.Token)
	assert.Equal(t, []string{"Thumb_Up"}, res.Labels)
	assert.Equal(t, clk.Now(), res.ProcessedAt)
	assert.Equal(t, []int64{100, 133}, mock.Timestamps())
}

func TestCoordinator_NoHands(t *testing.T) {
	mock := detector.NewMockDetector()
	c := NewCoordinator(mock, newClassifier(t), clock.NewMock(), nil)

	img := gocv.NewMat()
	defer img.Close()

	res, _, err := c.MaybeClassify(1, &img)
	require.NoError(t, err)
	assert.Equal(t, gesture.NoGesture, res.Token)
	assert.Empty(t, res.Hands)
}

func TestCoordinator_BackendErrorIsNotRetried(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetHands(detector.OpenPalmHand())
	c := NewCoordinator(mock, newClassifier(t), clock.NewMock(), nil)

	img := gocv.NewMat()
	defer img.Close()

	_, _, err := c.MaybeClassify(1, &img)
	require.NoError(t, err)

	backendErr := errors.New("recognizer crashed")
	mock.SetError(backendErr)

	res, last, err := c.MaybeClassify(2, &img)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backendErr))
	assert.Equal(t, int64(2), last)
	assert.Equal(t, gesture.NoGesture, res.Token)

	// Same frame again: cached empty result, no second backend call.
	res, _, err = c.MaybeClassify(2, &img)
	require.NoError(t, err)
	assert.Equal(t, gesture.NoGesture, res.Token)
	assert.Equal(t, 2, mock.Calls())
}

func TestCoordinator_Reset(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetHands(detector.OpenPalmHand())
	c := NewCoordinator(mock, newClassifier(t), clock.NewMock(), nil)

	img := gocv.NewMat()
	defer img.Close()

	c.MaybeClassify(5, &img)
	c.Reset()
	assert.Equal(t, Never, c.LastTimestamp())

	c.MaybeClassify(5, &img)
	assert.Equal(t, 2, mock.Calls())
}

func TestCoordinator_SetClassifier(t *testing.T) {
	mock := detector.NewMockDetector()
	mock.SetHands(detector.OpenPalmHand())
	c := NewCoordinator(mock, newClassifier(t), clock.NewMock(), nil)

	img := gocv.NewMat()
	defer img.Close()

	res, _, _ := c.MaybeClassify(5, &img)
	assert.Equal(t, gesture.Token("stop"), res.Token)

	other, err := gesture.NewMappingTable("other", "", "", []gesture.Entry{
		{Hands: []string{"Open_Palm"}, Token: "five"},
	})
	require.NoError(t, err)
	c.SetClassifier(gesture.NewClassifier(other))

	res, _, _ = c.MaybeClassify(5, &img)
	assert.Equal(t, gesture.Token("five"), res.Token)
}

func TestCoordinator_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	mock := detector.NewMockDetector()
	mock.SetHands(detector.OpenPalmHand())
	c := NewCoordinator(mock, newClassifier(t), clock.NewMock(), m)

	img := gocv.NewMat()
	defer img.Close()

	c.MaybeClassify(1, &img)
	c.MaybeClassify(1, &img)
	c.MaybeClassify(1, &img)

	count, err := testutil.GatherAndCount(reg, "signlink_frames_deduplicated_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		switch mf.GetName() {
		case "signlink_frames_deduplicated_total":
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		case "signlink_frames_processed_total":
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
