package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ayusman/signlink/internal/app"
	"github.com/ayusman/signlink/internal/capture"
	"github.com/ayusman/signlink/internal/clips"
	"github.com/ayusman/signlink/internal/config"
	"github.com/ayusman/signlink/internal/detector"
	"github.com/ayusman/signlink/internal/gesture"
	"github.com/ayusman/signlink/internal/logging"
	"github.com/ayusman/signlink/internal/metrics"
	"github.com/ayusman/signlink/internal/server"
	"github.com/ayusman/signlink/internal/speech"
	"github.com/ayusman/signlink/internal/store"
	"github.com/ayusman/signlink/internal/translate"
	"github.com/ayusman/signlink/internal/tray"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		useTray bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the interpreter and its web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}
			if cmd.Flags().Changed("tray") {
				cfg.Tray = useTray
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().BoolVar(&useTray, "tray", false, "show the system tray menu")
	return cmd
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Loader{}.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

func serve(cfg config.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(cfg.DataDir, "signlink.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tables, err := loadTables(cfg)
	if err != nil {
		return err
	}
	clipRegistry, err := loadClips(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clk := clock.New()
	a, err := app.New(app.Config{
		Store:           st,
		Camera:          capture.NewCamera(cfg.Camera.ID, clk),
		Detector:        newDetector(cfg, log),
		Tables:          tables,
		Table:           cfg.Gesture.Table,
		Synthesizer:     newSynthesizer(cfg, log),
		SpeechRate:      cfg.Speech.Rate,
		SpeechPitch:     cfg.Speech.Pitch,
		Translator:      newTranslator(cfg),
		Clips:           clipRegistry,
		MotionThreshold: cfg.Camera.MotionThreshold,
		IdleFPS:         cfg.Camera.IdleFPS,
		ActiveFPS:       cfg.Camera.ActiveFPS,
		IdleTimeout:     cfg.Camera.IdleTimeout(),
		Clock:           clk,
		Logger:          log,
		Metrics:         m,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	webDir := findWebDir(cfg.DataDir)
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}
	srv := server.New(server.Config{
		App:       a,
		Store:     st,
		Gatherer:  reg,
		StaticDir: webDir,
		Logger:    log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	if cfg.Tray {
		t := tray.New(a, log)
		t.OnSettings(func() { openBrowser("http://"+cfg.ListenAddr, log) })
		go func() {
			select {
			case err := <-errCh:
				log.Error("server failed", "error", err)
			case <-sig:
			}
			a.Close()
			os.Exit(0)
		}()
		// systray needs the main goroutine.
		t.Run()
		return nil
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case s := <-sig:
		log.Info("shutting down", "signal", s.String())
		return nil
	}
}

func loadTables(cfg config.Config) (*gesture.Registry, error) {
	tables, err := gesture.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("load built-in tables: %w", err)
	}
	if cfg.Gesture.TablesDir != "" {
		if err := tables.LoadFS(os.DirFS(cfg.Gesture.TablesDir), "."); err != nil {
			return nil, fmt.Errorf("load tables from %s: %w", cfg.Gesture.TablesDir, err)
		}
	}
	return tables, nil
}

func loadClips(cfg config.Config) (*clips.Registry, error) {
	if cfg.ClipsFile == "" {
		return clips.DefaultRegistry(), nil
	}
	f, err := os.Open(cfg.ClipsFile)
	if err != nil {
		return nil, fmt.Errorf("open clips: %w", err)
	}
	defer f.Close()
	return clips.LoadRegistry(f)
}

func newDetector(cfg config.Config, log *slog.Logger) detector.Detector {
	if cfg.Detector.Mock {
		return detector.NewMockDetector()
	}
	dc := detector.DefaultConfig()
	dc.ScriptPath = cfg.Detector.ScriptPath
	dc.PythonPath = cfg.Detector.PythonPath
	d, err := detector.NewMediaPipeDetector(dc, log)
	if err != nil {
		log.Warn("hand detector unavailable, recognition disabled", "error", err)
		return nil
	}
	return d
}

var defaultVoices = []speech.Voice{
	{Name: "ko", Locale: "ko-KR"},
	{Name: "en-us", Locale: "en-US"},
}

func newSynthesizer(cfg config.Config, log *slog.Logger) speech.Synthesizer {
	candidates := []string{speech.CommandEspeak, speech.CommandSay}
	if cfg.Speech.Command != "" {
		candidates = []string{cfg.Speech.Command}
	}
	for _, c := range candidates {
		s, err := speech.NewCommandSynthesizer(c, defaultVoices)
		if err == nil {
			return s
		}
		log.Debug("speech command unavailable", "command", c, "error", err)
	}
	log.Warn("no speech backend, speaking disabled")
	return nil
}

func newTranslator(cfg config.Config) translate.Translator {
	if cfg.TranslatorURL != "" {
		return translate.NewHTTP(cfg.TranslatorURL)
	}
	return translate.NewSimulated()
}

// findWebDir looks for the web UI next to the working directory, then in
// the data directory.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string, log *slog.Logger) {
	name := "xdg-open"
	if _, err := exec.LookPath("open"); err == nil {
		name = "open"
	}
	if err := exec.Command(name, url).Start(); err != nil {
		log.Warn("open browser", "error", err)
	}
}
