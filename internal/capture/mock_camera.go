package capture

import (
	"sync"

	"github.com/benbjohnson/clock"
	"gocv.io/x/gocv"
)

// MockCamera plays back in-memory frames. Timestamps come from its clock, so
// reading twice without advancing a mock clock yields the same timestamp.
type MockCamera struct {
	mu       sync.Mutex
	frames   []*gocv.Mat
	index    int
	loop     bool
	running  bool
	fps      int
	clock    clock.Clock
	openedAt int64
	openErr  error
	reads    int
}

// NewMockCamera plays frames once, or forever when loop is set.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, fps: DefaultFPS, clock: clock.New()}
}

// NewBlankMockCamera loops a single black 640x480 frame.
func NewBlankMockCamera() *MockCamera {
	m := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	return NewMockCamera([]*gocv.Mat{&m}, true)
}

// SetClock replaces the timestamp clock.
func (c *MockCamera) SetClock(clk clock.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clk
}

// SetOpenError makes the next Open calls fail.
func (c *MockCamera) SetOpenError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.running = true
	c.index = 0
	c.openedAt = c.clock.Now().UnixMilli()
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return Frame{}, ErrCameraNotOpen
	}
	if len(c.frames) == 0 {
		return Frame{}, ErrNoFrame
	}
	if c.index >= len(c.frames) {
		if !c.loop {
			return Frame{}, ErrNoFrame
		}
		c.index = 0
	}

	mat := c.frames[c.index].Clone()
	c.index++
	c.reads++

	return Frame{Mat: &mat, Timestamp: c.clock.Now().UnixMilli() - c.openedAt}, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reads counts successful ReadFrame calls.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// SetFrames replaces the frame sequence and rewinds.
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = frames
	c.index = 0
}
