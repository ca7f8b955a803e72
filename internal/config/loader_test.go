package config_test

import (
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signlink/internal/config"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func noFile(string) ([]byte, error) { return nil, fs.ErrNotExist }

func TestLoaderDefaults(t *testing.T) {
	loader := config.Loader{Lookup: envLookup(nil), ReadFile: noFile}
	cfg, err := loader.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, config.DefaultDataDir, cfg.DataDir)
	assert.Equal(t, config.DefaultTable, cfg.Gesture.Table)
	assert.Equal(t, config.DefaultLocale, cfg.Speech.Locale)
	assert.Equal(t, 1.0, cfg.Speech.Rate)
	assert.Equal(t, 1.0, cfg.Speech.Pitch)
	assert.Equal(t, config.DefaultIdleFPS, cfg.Camera.IdleFPS)
	assert.Equal(t, config.DefaultActiveFPS, cfg.Camera.ActiveFPS)
	assert.Equal(t, config.DefaultIdleTimeoutMs, cfg.Camera.IdleTimeoutMs)
	assert.Equal(t, 2*time.Second, cfg.Camera.IdleTimeout())
	assert.Equal(t, config.DefaultMotionThreshold, cfg.Camera.MotionThreshold)
	assert.Empty(t, cfg.TranslatorURL)
	assert.False(t, cfg.Tray)

	assert.Equal(t, config.Default(), cfg)
}

func TestLoaderFileAndOverrides(t *testing.T) {
	file := []byte(`
listen_addr: 0.0.0.0:9000
log_level: debug
camera:
  id: 1
  idle_fps: 3
gesture:
  table: en-stop
speech:
  locale: en-US
  command: say
`)
	env := map[string]string{
		"SIGNLINK_LISTEN_ADDR":    "127.0.0.1:7000",
		"SIGNLINK_TABLE":          "  en-five ",
		"SIGNLINK_SPEECH_RATE":    "1.5",
		"SIGNLINK_TRAY":           "true",
		"SIGNLINK_TRANSLATOR_URL": "http://localhost:9999/translate",
		"SIGNLINK_LOCALE":         "",
	}

	loader := config.Loader{
		Lookup: envLookup(env),
		ReadFile: func(path string) ([]byte, error) {
			assert.Equal(t, "signlink.yaml", path)
			return file, nil
		},
	}
	cfg, err := loader.Load("signlink.yaml")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Camera.ID)
	assert.Equal(t, 3, cfg.Camera.IdleFPS)
	assert.Equal(t, config.DefaultActiveFPS, cfg.Camera.ActiveFPS)
	assert.Equal(t, "en-five", cfg.Gesture.Table)
	assert.Equal(t, "en-US", cfg.Speech.Locale, "blank env values are ignored")
	assert.Equal(t, "say", cfg.Speech.Command)
	assert.Equal(t, 1.5, cfg.Speech.Rate)
	assert.True(t, cfg.Tray)
	assert.Equal(t, "http://localhost:9999/translate", cfg.TranslatorURL)
}

func TestLoaderConfigFileFromEnv(t *testing.T) {
	var read string
	loader := config.Loader{
		Lookup: envLookup(map[string]string{config.EnvConfigFile: "/etc/signlink.yaml"}),
		ReadFile: func(path string) ([]byte, error) {
			read = path
			return nil, fs.ErrNotExist
		},
	}
	_, err := loader.Load("")
	assert.Error(t, err, "an explicitly named file must exist")
	assert.Equal(t, "/etc/signlink.yaml", read)
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{"bad int", map[string]string{"SIGNLINK_CAMERA_ID": "front"}, ""},
		{"bad float", map[string]string{"SIGNLINK_SPEECH_PITCH": "high"}, ""},
		{"bad bool", map[string]string{"SIGNLINK_TRAY": "sometimes"}, ""},
		{"bad yaml", nil, "camera: [1, 2"},
		{"negative camera", map[string]string{"SIGNLINK_CAMERA_ID": "-1"}, ""},
		{"fps inverted", nil, "camera:\n  idle_fps: 20\n  active_fps: 10\n"},
		{"rate out of range", map[string]string{"SIGNLINK_SPEECH_RATE": "50"}, ""},
		{"pitch out of range", map[string]string{"SIGNLINK_SPEECH_PITCH": "3"}, ""},
		{"motion threshold", map[string]string{"SIGNLINK_MOTION_THRESHOLD": "150"}, ""},
		{"log level", map[string]string{"SIGNLINK_LOG_LEVEL": "chatty"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := config.Loader{
				Lookup: envLookup(tt.env),
				ReadFile: func(string) ([]byte, error) {
					if tt.file == "" {
						return nil, fs.ErrNotExist
					}
					return []byte(tt.file), nil
				},
			}
			path := ""
			if tt.file != "" {
				path = "signlink.yaml"
			}
			_, err := loader.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateRequiresListenAddr(t *testing.T) {
	cfg := config.Config{}
	assert.Error(t, cfg.Validate())
}
