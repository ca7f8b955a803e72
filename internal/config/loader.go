package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the environment variable holding the config file path.
const EnvConfigFile = "SIGNLINK_CONFIG"

// Loader reads a YAML file and then applies environment overrides. Tests can
// replace Lookup and ReadFile.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load reads path (or $SIGNLINK_CONFIG when path is empty), applies
// SIGNLINK_* overrides and validates the result. A missing file is not an
// error when no path was given explicitly.
func (l Loader) Load(path string) (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Config{ListenAddr: DefaultListenAddr}

	explicit := path != ""
	if !explicit {
		if v, ok := l.Lookup(EnvConfigFile); ok && strings.TrimSpace(v) != "" {
			path = strings.TrimSpace(v)
			explicit = true
		}
	}
	if path != "" {
		data, err := l.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) applyEnv(cfg *Config) error {
	overrideString(l.Lookup, "SIGNLINK_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "SIGNLINK_DATA_DIR", &cfg.DataDir)
	overrideString(l.Lookup, "SIGNLINK_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "SIGNLINK_TABLE", &cfg.Gesture.Table)
	overrideString(l.Lookup, "SIGNLINK_TABLES_DIR", &cfg.Gesture.TablesDir)
	overrideString(l.Lookup, "SIGNLINK_LOCALE", &cfg.Speech.Locale)
	overrideString(l.Lookup, "SIGNLINK_SPEECH_COMMAND", &cfg.Speech.Command)
	overrideString(l.Lookup, "SIGNLINK_TRANSLATOR_URL", &cfg.TranslatorURL)
	overrideString(l.Lookup, "SIGNLINK_CLIPS_FILE", &cfg.ClipsFile)
	overrideString(l.Lookup, "SIGNLINK_DETECTOR_SCRIPT", &cfg.Detector.ScriptPath)
	overrideString(l.Lookup, "SIGNLINK_PYTHON", &cfg.Detector.PythonPath)

	if err := overrideInt(l.Lookup, "SIGNLINK_CAMERA_ID", &cfg.Camera.ID); err != nil {
		return err
	}
	if err := overrideInt(l.Lookup, "SIGNLINK_IDLE_FPS", &cfg.Camera.IdleFPS); err != nil {
		return err
	}
	if err := overrideInt(l.Lookup, "SIGNLINK_ACTIVE_FPS", &cfg.Camera.ActiveFPS); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, "SIGNLINK_MOTION_THRESHOLD", &cfg.Camera.MotionThreshold); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, "SIGNLINK_SPEECH_RATE", &cfg.Speech.Rate); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, "SIGNLINK_SPEECH_PITCH", &cfg.Speech.Pitch); err != nil {
		return err
	}
	if err := overrideBool(l.Lookup, "SIGNLINK_TRAY", &cfg.Tray); err != nil {
		return err
	}
	return overrideBool(l.Lookup, "SIGNLINK_MOCK_DETECTOR", &cfg.Detector.Mock)
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if v, ok := lookupTrimmed(lookup, key); ok {
		*target = v
	}
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	v, ok := lookupTrimmed(lookup, key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = n
	return nil
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	v, ok := lookupTrimmed(lookup, key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = f
	return nil
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	v, ok := lookupTrimmed(lookup, key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}
	*target = b
	return nil
}
