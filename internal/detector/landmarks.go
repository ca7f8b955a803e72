// Package detector talks to the hand pose recognition backend.
package detector

// Landmark indices in the recognizer's 21-point hand model. Only the
// fingertips and the wrist are named.
const (
	Wrist        = 0
	ThumbTip     = 4
	IndexTip     = 8
	MiddleTip    = 12
	RingTip      = 16
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a normalized image coordinate with relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks holds the 21 landmarks of one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Category is one ranked gesture guess for a hand.
type Category struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Hand is a single detected hand with its ranked gesture categories.
type Hand struct {
	Landmarks HandLandmarks `json:"landmarks"`
	// Gestures is ordered best first.
	Gestures []Category `json:"gestures"`
}

// TopCategory returns the highest ranked gesture category.
func (h Hand) TopCategory() (Category, bool) {
	if len(h.Gestures) == 0 {
		return Category{}, false
	}
	return h.Gestures[0], true
}
