package app

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/translate"
)

// SetCamera turns the camera and frame loop on or off. Turning it off clears
// the displayed word but keeps the sentence.
func (a *App) SetCamera(on bool) error {
	a.camMu.Lock()
	defer a.camMu.Unlock()
	return a.setCamera(on)
}

func (a *App) setCamera(on bool) error {
	a.mu.Lock()
	if on == a.cameraOn {
		a.mu.Unlock()
		return nil
	}

	if on {
		if err := a.camera.Open(); err != nil {
			a.mu.Unlock()
			return fmt.Errorf("open camera: %w", err)
		}
		a.camera.SetFPS(a.governor.FPS())
		a.cameraOn = true
		a.description = translate.CameraOnDescription
		a.lastErr = ""
		a.stopCh = make(chan struct{})
		a.loopDone = make(chan struct{})
		go a.runPipeline(a.stopCh, a.loopDone)
		a.mu.Unlock()

		a.log.Info("camera on")
		a.publish()
		return nil
	}

	a.cameraOn = false
	stop, done := a.stopCh, a.loopDone
	a.stopCh, a.loopDone = nil, nil
	a.mu.Unlock()

	close(stop)
	<-done

	a.mu.Lock()
	err := a.camera.Close()
	a.motion.Reset()
	a.coordinator.Reset()
	a.builder.OnClassification(gesture.NoGesture)
	a.description = translate.DefaultDescription
	a.jpeg = nil
	a.mu.Unlock()

	a.log.Info("camera off")
	a.publish()
	if err != nil {
		return fmt.Errorf("close camera: %w", err)
	}
	return nil
}

// ToggleCamera flips the camera state.
func (a *App) ToggleCamera() (bool, error) {
	a.camMu.Lock()
	defer a.camMu.Unlock()
	on := !a.CameraOn()
	return on, a.setCamera(on)
}

// runPipeline ticks at the governor's rate. Motion only changes the rate;
// every tick reads a frame and hands it to the coordinator, which skips
// frames it has already seen.
func (a *App) runPipeline(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := a.clock.Ticker(a.governor.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if fps, changed := a.processFrame(); changed {
				a.camera.SetFPS(fps)
				ticker.Reset(a.governor.Interval())
				a.log.Debug("frame rate changed", "fps", fps)
			}
		}
	}
}

// processFrame runs one tick. It returns the rate the governor chose and
// whether it changed.
func (a *App) processFrame() (int, bool) {
	f, err := a.camera.ReadFrame()
	if err != nil {
		a.log.Debug("read frame", "error", err)
		return a.governor.FPS(), false
	}
	defer f.Close()

	moved, _ := a.motion.Detect(f.Mat)
	fps, changed := a.governor.Observe(moved)

	a.mu.Lock()
	if !a.cameraOn {
		a.mu.Unlock()
		return fps, changed
	}
	prev := a.builder.Displayed()
	prevTS := a.coordinator.LastTimestamp()
	prevErr := a.lastErr

	res, _, err := a.coordinator.MaybeClassify(f.Timestamp, f.Mat)
	if err != nil {
		a.lastErr = err.Error()
		a.log.Warn("recognition failed", "timestamp", f.Timestamp, "error", err)
	} else if f.Timestamp != prevTS {
		a.lastErr = ""
	}
	a.builder.OnClassification(res.Token)

	if f.Timestamp != prevTS {
		if buf, err := gocv.IMEncode(gocv.JPEGFileExt, *f.Mat); err == nil {
			a.jpeg = append(a.jpeg[:0], buf.GetBytes()...)
			a.jpegTS = f.Timestamp
			buf.Close()
		}
	}
	changedState := prev != a.builder.Displayed() || prevErr != a.lastErr
	a.mu.Unlock()

	if changedState {
		a.publish()
	}
	return fps, changed
}

// LatestJPEG returns a copy of the most recent frame and its timestamp.
func (a *App) LatestJPEG() ([]byte, int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.jpeg) == 0 {
		return nil, 0, false
	}
	return append([]byte(nil), a.jpeg...), a.jpegTS, true
}
