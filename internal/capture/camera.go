// Package capture reads camera frames through GoCV and tracks motion to pick
// a frame rate.
package capture

import (
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device produced nothing.
	ErrNoFrame = errors.New("no frame available")
)

// Frame is a captured image and its capture timestamp in milliseconds.
// Two frames with the same timestamp are the same frame.
type Frame struct {
	Mat       *gocv.Mat
	Timestamp int64
}

// Close releases the image.
func (f Frame) Close() {
	if f.Mat != nil {
		f.Mat.Close()
	}
}

// Camera is a frame source.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (Frame, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

type cameraImpl struct {
	deviceID int
	clock    clock.Clock

	mu       sync.Mutex
	capture  *gocv.VideoCapture
	running  bool
	fps      int
	openedAt int64
	lastTS   int64
}

// NewCamera creates a Camera for deviceID. A nil clk uses the wall clock.
func NewCamera(deviceID int, clk clock.Clock) Camera {
	if clk == nil {
		clk = clock.New()
	}
	return &cameraImpl{
		deviceID: deviceID,
		clock:    clk,
		fps:      DefaultFPS,
	}
}

// Open opens the device at 640x480.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return err
	}

	vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
	vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
	vc.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = vc
	c.running = true
	c.openedAt = c.clock.Now().UnixMilli()
	c.lastTS = -1

	return nil
}

func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame stamps the frame with the device position when it reports one,
// otherwise with the time since Open.
func (c *cameraImpl) ReadFrame() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return Frame{}, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return Frame{}, ErrNoFrame
	}

	ts := int64(c.capture.Get(gocv.VideoCapturePosMsec))
	if ts <= 0 {
		// Webcams usually report no position; every read is a new frame.
		ts = c.clock.Now().UnixMilli() - c.openedAt
		if ts <= c.lastTS {
			ts = c.lastTS + 1
		}
	}
	c.lastTS = ts

	return Frame{Mat: &mat, Timestamp: ts}, nil
}

// SetFPS ignores values <= 0.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
