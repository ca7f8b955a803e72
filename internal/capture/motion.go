package capture

import (
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"gocv.io/x/gocv"
)

const (
	// BlurSize is the Gaussian kernel applied before differencing.
	BlurSize = 21
	// PixelDelta is the per-pixel intensity change counted as motion.
	PixelDelta = 25
)

// MotionDetector compares each frame against the previous one. The
// threshold is the percentage of pixels that must change.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect reports whether frame moved relative to the previous frame and by
// what percentage. The first frame only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: BlurSize, Y: BlurSize}, 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100.0
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the baseline. The detector can be reused afterwards.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// SetThreshold ignores values <= 0.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

// RateGovernor picks the capture rate: ActiveFPS as soon as motion is seen,
// back to IdleFPS once no motion was seen for IdleTimeout.
type RateGovernor struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration

	clock      clock.Clock
	active     bool
	lastMotion time.Time
}

// NewRateGovernor starts in idle mode. A nil clk uses the wall clock.
func NewRateGovernor(idleFPS, activeFPS int, idleTimeout time.Duration, clk clock.Clock) *RateGovernor {
	if clk == nil {
		clk = clock.New()
	}
	return &RateGovernor{
		IdleFPS:     idleFPS,
		ActiveFPS:   activeFPS,
		IdleTimeout: idleTimeout,
		clock:       clk,
		lastMotion:  clk.Now(),
	}
}

// Observe records one motion sample and returns the rate to use and whether
// it changed.
func (g *RateGovernor) Observe(motion bool) (int, bool) {
	now := g.clock.Now()
	switch {
	case motion:
		g.lastMotion = now
		if !g.active {
			g.active = true
			return g.ActiveFPS, true
		}
	case g.active && now.Sub(g.lastMotion) > g.IdleTimeout:
		g.active = false
		return g.IdleFPS, true
	}
	return g.FPS(), false
}

// Active reports whether the governor is in active mode.
func (g *RateGovernor) Active() bool {
	return g.active
}

// FPS is the current rate.
func (g *RateGovernor) FPS() int {
	if g.active {
		return g.ActiveFPS
	}
	return g.IdleFPS
}

// Interval is the tick period for the current rate.
func (g *RateGovernor) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
