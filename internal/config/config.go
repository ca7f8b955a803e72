// Package config loads SignLink settings from a YAML file and SIGNLINK_*
// environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/ayusman/signlink/internal/logging"
)

const (
	DefaultListenAddr      = "127.0.0.1:8080"
	DefaultDataDir         = "data"
	DefaultMotionThreshold = 1.0
	DefaultIdleFPS         = 5
	DefaultActiveFPS       = 15
	DefaultIdleTimeoutMs   = 2000
	DefaultTable           = "ko-basic"
	DefaultLocale          = "ko-KR"
	DefaultSpeechRate      = 1.0
	DefaultSpeechPitch     = 1.0
	DefaultLogLevel        = "info"
)

// Config is the full set of runtime settings.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`
	LogLevel   string `yaml:"log_level"`
	Tray       bool   `yaml:"tray"`

	Camera   CameraConfig   `yaml:"camera"`
	Detector DetectorConfig `yaml:"detector"`
	Gesture  GestureConfig  `yaml:"gesture"`
	Speech   SpeechConfig   `yaml:"speech"`

	// TranslatorURL selects the HTTP translator; empty uses the simulated one.
	TranslatorURL string `yaml:"translator_url"`
	// ClipsFile replaces the built-in clip catalogue.
	ClipsFile string `yaml:"clips_file"`
}

// CameraConfig controls capture and the motion-driven frame rate.
type CameraConfig struct {
	ID              int     `yaml:"id"`
	MotionThreshold float64 `yaml:"motion_threshold"`
	IdleFPS         int     `yaml:"idle_fps"`
	ActiveFPS       int     `yaml:"active_fps"`
	IdleTimeoutMs   int     `yaml:"idle_timeout_ms"`
}

// IdleTimeout is how long the active frame rate outlasts the last motion.
func (c CameraConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMs) * time.Millisecond
}

// DetectorConfig locates the pose recognition backend.
type DetectorConfig struct {
	ScriptPath string `yaml:"script_path"`
	PythonPath string `yaml:"python_path"`
	// Mock forces the in-process mock detector.
	Mock bool `yaml:"mock"`
}

// GestureConfig selects the mapping table.
type GestureConfig struct {
	Table     string `yaml:"table"`
	TablesDir string `yaml:"tables_dir"`
}

// SpeechConfig configures the speech backend.
type SpeechConfig struct {
	Locale  string  `yaml:"locale"`
	Rate    float64 `yaml:"rate"`
	Pitch   float64 `yaml:"pitch"`
	Command string  `yaml:"command"`
}

// Default returns a Config with every default applied.
func Default() Config {
	var c Config
	c.ListenAddr = DefaultListenAddr
	_ = c.Validate()
	return c
}

// Validate applies defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.Camera.ID < 0 {
		return fmt.Errorf("config: camera id must be >= 0, got %d", c.Camera.ID)
	}
	if c.Camera.MotionThreshold == 0 {
		c.Camera.MotionThreshold = DefaultMotionThreshold
	}
	if c.Camera.MotionThreshold < 0 || c.Camera.MotionThreshold > 100 {
		return fmt.Errorf("config: motion_threshold must be within 0..100, got %g", c.Camera.MotionThreshold)
	}
	if c.Camera.IdleFPS == 0 {
		c.Camera.IdleFPS = DefaultIdleFPS
	}
	if c.Camera.ActiveFPS == 0 {
		c.Camera.ActiveFPS = DefaultActiveFPS
	}
	if c.Camera.IdleFPS < 0 || c.Camera.ActiveFPS < 0 {
		return fmt.Errorf("config: fps must be positive")
	}
	if c.Camera.ActiveFPS < c.Camera.IdleFPS {
		return fmt.Errorf("config: active_fps %d is below idle_fps %d", c.Camera.ActiveFPS, c.Camera.IdleFPS)
	}
	if c.Camera.IdleTimeoutMs == 0 {
		c.Camera.IdleTimeoutMs = DefaultIdleTimeoutMs
	}
	if c.Camera.IdleTimeoutMs < 0 {
		return fmt.Errorf("config: idle_timeout_ms must be positive, got %d", c.Camera.IdleTimeoutMs)
	}

	if c.Gesture.Table == "" {
		c.Gesture.Table = DefaultTable
	}

	if c.Speech.Locale == "" {
		c.Speech.Locale = DefaultLocale
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = DefaultSpeechRate
	}
	if c.Speech.Pitch == 0 {
		c.Speech.Pitch = DefaultSpeechPitch
	}
	if c.Speech.Rate < 0.1 || c.Speech.Rate > 10 {
		return fmt.Errorf("config: speech rate must be within 0.1..10, got %g", c.Speech.Rate)
	}
	if c.Speech.Pitch < 0 || c.Speech.Pitch > 2 {
		return fmt.Errorf("config: speech pitch must be within 0..2, got %g", c.Speech.Pitch)
	}
	return nil
}
