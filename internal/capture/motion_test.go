package capture

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"gocv.io/x/gocv"
)

func solidFrame(v float64) gocv.Mat {
	m := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	m.SetTo(gocv.NewScalar(v, v, v, 0))
	return m
}

func TestMotionDetector_NoMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	a, b := solidFrame(0), solidFrame(0)
	defer a.Close()
	defer b.Close()

	if detected, pct := md.Detect(&a); detected || pct != 0 {
		t.Errorf("first frame = (%v, %f), want (false, 0)", detected, pct)
	}
	if detected, pct := md.Detect(&b); detected {
		t.Errorf("identical frames detected motion, changed = %f", pct)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	defer md.Close()

	black, white := solidFrame(0), solidFrame(255)
	defer black.Close()
	defer white.Close()

	md.Detect(&black)
	detected, pct := md.Detect(&white)
	if !detected {
		t.Errorf("black to white should detect motion, changed = %f", pct)
	}
	if pct < 50.0 {
		t.Errorf("changed = %f, expected > 50%%", pct)
	}
}

func TestMotionDetector_ResetAndClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	md := NewMotionDetector(1.0)
	black, white := solidFrame(0), solidFrame(255)
	defer black.Close()
	defer white.Close()

	md.Detect(&black)
	if !md.primed {
		t.Fatal("detector should be primed after first Detect")
	}

	md.Reset()
	if md.primed || !md.prev.Empty() {
		t.Error("Reset should drop the baseline")
	}
	if detected, _ := md.Detect(&white); detected {
		t.Error("first frame after Reset should not detect motion")
	}

	md.Close()
	md.Close()
}

func TestMotionDetector_SetThreshold(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	tests := []struct {
		in, want float64
	}{
		{5.0, 5.0},
		{0.5, 0.5},
		{0, 0.5},
		{-1.0, 0.5},
	}
	for _, tt := range tests {
		md.SetThreshold(tt.in)
		if md.threshold != tt.want {
			t.Errorf("SetThreshold(%f): threshold = %f, want %f", tt.in, md.threshold, tt.want)
		}
	}
}

func TestRateGovernor(t *testing.T) {
	mock := clock.NewMock()
	g := NewRateGovernor(5, 15, 2*time.Second, mock)

	if g.Active() || g.FPS() != 5 {
		t.Fatalf("initial state active=%v fps=%d", g.Active(), g.FPS())
	}
	if g.Interval() != 200*time.Millisecond {
		t.Errorf("idle interval = %v", g.Interval())
	}

	steps := []struct {
		name        string
		advance     time.Duration
		motion      bool
		wantFPS     int
		wantChanged bool
	}{
		{"still while idle", 100 * time.Millisecond, false, 5, false},
		{"motion activates", 100 * time.Millisecond, true, 15, true},
		{"more motion", 100 * time.Millisecond, true, 15, false},
		{"quiet within timeout", 1500 * time.Millisecond, false, 15, false},
		{"quiet past timeout", 600 * time.Millisecond, false, 5, true},
		{"still idle", time.Second, false, 5, false},
	}

	for _, s := range steps {
		mock.Add(s.advance)
		fps, changed := g.Observe(s.motion)
		if fps != s.wantFPS || changed != s.wantChanged {
			t.Errorf("%s: Observe = (%d, %v), want (%d, %v)", s.name, fps, changed, s.wantFPS, s.wantChanged)
		}
	}
}
