package detector

import "gocv.io/x/gocv"

// Detector is a hand pose recognition backend.
type Detector interface {
	// Detect analyzes a video frame captured at timestampMs and returns the
	// detected hands in the order the backend reports them.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat, timestampMs int64) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config is passed to the recognizer service on startup.
type Config struct {
	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64

	// ScriptPath overrides the recognizer service script location.
	ScriptPath string

	// PythonPath overrides the interpreter used to run the script.
	PythonPath string
}

// DefaultConfig tracks two hands at 0.5 confidence.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
