// Package frame feeds camera frames to the recognition backend at most once
// per distinct frame timestamp.
package frame

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"gocv.io/x/gocv"

	"github.com/ayusman/signlink/internal/detector"
	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/metrics"
)

// Never is the timestamp sentinel before any frame has been processed.
const Never int64 = -1

// Result is the outcome of recognizing and classifying one frame.
type Result struct {
	// Timestamp is the frame timestamp the result belongs to.
	Timestamp int64
	// Hands are the detected hands in backend order.
	Hands []detector.Hand
	// Labels are the top category names per hand.
	Labels []string
	// Token is the classified word, or gesture.NoGesture.
	Token gesture.Token
	// ProcessedAt is when the backend returned.
	ProcessedAt time.Time
}

// Coordinator deduplicates frames by timestamp. It is driven from a single
// frame loop and is not safe for concurrent use.
type Coordinator struct {
	detector   detector.Detector
	classifier *gesture.Classifier
	clock      clock.Clock
	metrics    *metrics.Metrics

	last   int64
	result Result
}

// NewCoordinator creates a Coordinator. A nil clock uses the wall clock.
func NewCoordinator(d detector.Detector, c *gesture.Classifier, clk clock.Clock, m *metrics.Metrics) *Coordinator {
	if clk == nil {
		clk = clock.New()
	}
	return &Coordinator{
		detector:   d,
		classifier: c,
		clock:      clk,
		metrics:    m,
		last:       Never,
	}
}

// MaybeClassify returns the cached result when timestamp equals the last
// processed one. Otherwise it runs the backend once, classifies the hands,
// stores the result and returns it along with the updated last timestamp.
//
// A backend error clears the cached result and still advances the
// timestamp, so the same frame is not retried.
func (c *Coordinator) MaybeClassify(timestamp int64, img *gocv.Mat) (Result, int64, error) {
	if timestamp == c.last {
		c.metrics.FrameDeduplicated()
		return c.result, c.last, nil
	}

	start := c.clock.Now()
	hands, err := c.detector.Detect(img, timestamp)
	now := c.clock.Now()
	c.metrics.FrameProcessed(now.Sub(start), err)

	c.last = timestamp
	if err != nil {
		c.result = Result{Timestamp: timestamp, ProcessedAt: now}
		return c.result, c.last, fmt.Errorf("recognize frame %d: %w", timestamp, err)
	}

	labels := Labels(hands)
	token := c.classifier.Classify(labels)
	c.metrics.Classified(!token.IsEmpty())

	c.result = Result{
		Timestamp:   timestamp,
		Hands:       hands,
		Labels:      labels,
		Token:       token,
		ProcessedAt: now,
	}
	return c.result, c.last, nil
}

// LastTimestamp returns the last processed frame timestamp, or Never.
func (c *Coordinator) LastTimestamp() int64 {
	return c.last
}

// Reset forgets the cached result, e.g. when the camera is reopened.
func (c *Coordinator) Reset() {
	c.last = Never
	c.result = Result{}
}

// SetClassifier swaps the classifier, e.g. after the mapping table changes.
// The cached result is dropped so the next frame is classified again.
func (c *Coordinator) SetClassifier(cl *gesture.Classifier) {
	c.classifier = cl
	c.Reset()
}
