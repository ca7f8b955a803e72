package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results and counts calls.
type MockDetector struct {
	mu         sync.Mutex
	hands      []Hand
	err        error
	calls      int
	timestamps []int64
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect records the call and returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat, timestampMs int64) ([]Hand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.timestamps = append(m.timestamps, timestampMs)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Hand, len(m.hands))
	copy(out, m.hands)
	return out, nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Timestamps returns the timestamps Detect was invoked with.
func (m *MockDetector) Timestamps() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.timestamps))
	copy(out, m.timestamps)
	return out
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// NewHand builds a hand whose top gesture category is name.
// Landmarks are taken from the open palm preset.
func NewHand(name string, score float64) Hand {
	return Hand{
		Landmarks: OpenPalmLandmarks(),
		Gestures:  []Category{{Name: name, Score: score}},
	}
}

// ThumbsUpHand returns a preset right hand classified as Thumb_Up.
func ThumbsUpHand() Hand {
	return Hand{
		Landmarks: ThumbsUpLandmarks(),
		Gestures: []Category{
			{Name: "Thumb_Up", Score: 0.92},
			{Name: "Closed_Fist", Score: 0.05},
		},
	}
}

// OpenPalmHand returns a preset right hand classified as Open_Palm.
func OpenPalmHand() Hand {
	return Hand{
		Landmarks: OpenPalmLandmarks(),
		Gestures: []Category{
			{Name: "Open_Palm", Score: 0.88},
			{Name: "Victory", Score: 0.07},
		},
	}
}

// ThumbsUpLandmarks returns landmarks of a right hand with the thumb raised
// and the other fingers curled.
func ThumbsUpLandmarks() HandLandmarks {
	return presetLandmarks("Right", 0.95, [NumLandmarks][3]float64{
		{0.50, 0.80, 0.00},
		{0.55, 0.75, 0.00}, {0.58, 0.65, 0.00}, {0.58, 0.50, 0.00}, {0.58, 0.35, 0.00},
		{0.55, 0.70, -0.02}, {0.55, 0.68, -0.05}, {0.52, 0.70, -0.04}, {0.50, 0.72, -0.02},
		{0.50, 0.68, -0.02}, {0.50, 0.66, -0.05}, {0.47, 0.68, -0.04}, {0.45, 0.70, -0.02},
		{0.45, 0.70, -0.02}, {0.45, 0.68, -0.05}, {0.42, 0.70, -0.04}, {0.40, 0.72, -0.02},
		{0.40, 0.72, -0.02}, {0.40, 0.70, -0.05}, {0.37, 0.72, -0.04}, {0.35, 0.74, -0.02},
	})
}

// OpenPalmLandmarks returns landmarks of a right hand with all fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return presetLandmarks("Right", 0.95, [NumLandmarks][3]float64{
		{0.50, 0.80, 0.00},
		{0.55, 0.75, 0.02}, {0.62, 0.70, 0.03}, {0.68, 0.65, 0.03}, {0.73, 0.60, 0.03},
		{0.55, 0.68, 0.00}, {0.57, 0.55, 0.00}, {0.58, 0.45, 0.00}, {0.58, 0.35, 0.00},
		{0.50, 0.66, 0.00}, {0.50, 0.52, 0.00}, {0.50, 0.40, 0.00}, {0.50, 0.28, 0.00},
		{0.45, 0.68, 0.00}, {0.43, 0.55, 0.00}, {0.42, 0.45, 0.00}, {0.42, 0.35, 0.00},
		{0.40, 0.70, 0.00}, {0.37, 0.60, 0.00}, {0.35, 0.50, 0.00}, {0.34, 0.42, 0.00},
	})
}

// presetLandmarks fills a HandLandmarks from wrist, thumb, index, middle,
// ring and pinky coordinates in landmark index order.
func presetLandmarks(handedness string, score float64, pts [NumLandmarks][3]float64) HandLandmarks {
	lm := HandLandmarks{Handedness: handedness, Score: score}
	for i, p := range pts {
		lm.Points[i] = Point3D{X: p[0], Y: p[1], Z: p[2]}
	}
	return lm
}
