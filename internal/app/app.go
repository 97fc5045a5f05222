// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     app
// Description: Composition root wiring all components into one application
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/msto63/cicero/internal/activation"
	"github.com/msto63/cicero/internal/audio"
	"github.com/msto63/cicero/internal/history"
	"github.com/msto63/cicero/internal/insert"
	"github.com/msto63/cicero/internal/llm"
	"github.com/msto63/cicero/internal/models"
	"github.com/msto63/cicero/internal/screen"
	"github.com/msto63/cicero/internal/session"
	"github.com/msto63/cicero/internal/stt"
	"github.com/msto63/cicero/internal/textproc"
	"github.com/msto63/cicero/pkg/core/logging"
)

// App wires configuration, activation, audio, speech, rewrite and
// insertion into one running application.
type App struct {
	cfg    Config
	logger *logging.Logger

	dict        *textproc.Dictionary
	hist        *history.Store
	coordinator *audio.Coordinator
	whisper     *stt.WhisperCLI
	transcriber session.Transcriber
	tracker     *models.Tracker
	downloader  *models.Downloader
	orch        *session.Orchestrator

	manual   *activation.ManualSource
	hotkey   *activation.HotkeySource
	mux      *activation.Mux
	detector *activation.Detector

	states  chan session.State
	updates chan models.Update
}

// New builds the application from a configuration
func New(cfg Config) (*App, error) {
	level := logging.ParseLevel(cfg.General.LogLevel)
	format := logging.FormatText
	if cfg.General.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.SetDefaults(level, format)

	a := &App{
		cfg:     cfg,
		logger:  logging.New("app"),
		states:  make(chan session.State, 32),
		updates: make(chan models.Update, 32),
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}

	a.dict, err = textproc.LoadDictionary(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}

	a.hist, err = history.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	if err := a.buildTranscriber(dataDir); err != nil {
		return nil, err
	}

	a.coordinator = audio.NewCoordinator(audio.CoordinatorConfig{
		Capture: audio.CaptureConfig{
			SampleRate: float64(cfg.Audio.SampleRate),
			BufferSize: cfg.Audio.FramesPerBuffer,
			Channels:   audio.DefaultChannels,
			DeviceName: cfg.Audio.Device,
		},
		SilenceLimit: time.Duration(cfg.Audio.SilenceLimitMs) * time.Millisecond,
		VADMode:      cfg.Audio.VADMode,
		TrimArtifact: cfg.Audio.TrimSilence,
		// The orchestrator is created right below; the closure reads it
		// at call time, during recording only
		OnLevel: func(level float64) { a.orch.SetAudioLevel(level) },
	})

	lang := textproc.ParseLanguage(cfg.General.Language)
	pipeline := textproc.NewPipeline(a.buildGenerator(), a.dict)

	var screenReader session.ScreenReader
	if cfg.Generation.UseScreenContext {
		screenReader = screen.NewCapturer(ocrLanguages(lang))
	}

	a.orch = session.New(a.coordinator, a.transcriber, pipeline, insert.New(), a.hist, screenReader, session.Config{
		Language:         lang,
		UseGeneration:    cfg.Generation.Enabled,
		UseScreenContext: cfg.Generation.UseScreenContext,
		StylePrompt:      cfg.Generation.StylePrompt,
		TargetApp:        cfg.Output.TargetApp,
		RecentInputCount: cfg.Generation.RecentInputCount,
	})
	a.orch.Subscribe(func(st session.State) {
		select {
		case a.states <- st:
		default:
		}
	})
	if a.downloader != nil {
		a.orch.SetPreparer(prepFunc(a.WarmUp))
	}

	a.buildActivation()
	return a, nil
}

// buildTranscriber selects the speech engine and prepares the model
// tracker
func (a *App) buildTranscriber(dataDir string) error {
	sttCfg := stt.Config{
		Language:   a.cfg.General.Language,
		SampleRate: a.cfg.Audio.SampleRate,
		NumThreads: a.cfg.Speech.Threads,
	}

	switch a.cfg.Speech.Engine {
	case "stream":
		// Remote engine, nothing to download
		a.tracker = models.NewTracker(false)
		a.transcriber = stt.NewStreamWS(a.cfg.Speech.StreamURL, sttCfg)
	default:
		w, err := stt.NewWhisperCLI(sttCfg)
		if err != nil {
			return fmt.Errorf("failed to init speech engine: %w", err)
		}
		a.whisper = w
		a.transcriber = w
		a.tracker = models.NewTracker(true)
		a.downloader = models.NewDownloader(filepath.Join(dataDir, "models"))
	}

	a.tracker.Subscribe(func(up models.Update) {
		select {
		case a.updates <- up:
		default:
		}
	})
	return nil
}

// buildGenerator selects the rewrite engine, nil when generation is off
func (a *App) buildGenerator() textproc.Generator {
	if !a.cfg.Generation.Enabled {
		return nil
	}
	switch a.cfg.Generation.Engine {
	case "remote":
		return llm.NewRemoteClient(llm.RemoteConfig{
			Format:  llm.ParseAPIFormat(a.cfg.Generation.APIFormat),
			BaseURL: a.cfg.Generation.BaseURL,
			APIKey:  a.cfg.Generation.APIKey(),
			Model:   a.cfg.Generation.Model,
		})
	default:
		return llm.NewOllamaClient(llm.OllamaConfig{
			BaseURL:        a.cfg.Generation.OllamaURL,
			Model:          a.cfg.Generation.OllamaModel,
			TimeoutSeconds: 120,
		})
	}
}

// buildActivation sets up the hotkey source, the manual fallback and
// the detector
func (a *App) buildActivation() {
	a.manual = activation.NewManualSource()

	if hk, err := activation.NewHotkeySource(a.cfg.Activation.Shortcut); err == nil {
		a.hotkey = hk
	} else {
		a.logger.Warn("Hotkey nicht verfügbar, nur manuelle Aktivierung", "error", err)
	}

	var privileged activation.Source
	if a.hotkey != nil {
		privileged = a.hotkey
	}
	a.mux = activation.NewMux(privileged, a.manual)

	a.detector = activation.NewDetector(activation.Config{
		Policy:      activation.ParsePolicy(a.cfg.Activation.Policy),
		TapInterval: time.Duration(a.cfg.Activation.TapIntervalMs) * time.Millisecond,
	})
}

// States returns the session state stream for UIs
func (a *App) States() <-chan session.State { return a.states }

// ModelUpdates returns the model preparation stream for UIs
func (a *App) ModelUpdates() <-chan models.Update { return a.updates }

// Orchestrator exposes the session for UI callbacks
func (a *App) Orchestrator() *session.Orchestrator { return a.orch }

// History exposes the input history store
func (a *App) History() *history.Store { return a.hist }

// Dictionary exposes the personal dictionary
func (a *App) Dictionary() *textproc.Dictionary { return a.dict }

// Tracker exposes the model preparation tracker
func (a *App) Tracker() *models.Tracker { return a.tracker }

// Downloader exposes the model downloader, nil for remote speech
func (a *App) Downloader() *models.Downloader { return a.downloader }

// WarmUp prepares the speech model so the first dictation does not pay
// the load cost
func (a *App) WarmUp(ctx context.Context) error {
	if a.downloader == nil || a.whisper == nil {
		return nil
	}
	return a.downloader.Ensure(ctx, a.cfg.Speech.Model, a.tracker, a.whisper)
}

// Toggle starts a dictation when idle and stops the recording when one
// runs. Used by the tray and the TUI space key, which cannot report
// press and release separately.
func (a *App) Toggle() {
	ctx := context.Background()
	phase := a.orch.State().Phase
	if phase == session.PhaseRecording || phase == session.PhaseDownloading {
		a.orch.Stop(ctx)
		a.detector.Reset()
		return
	}
	if err := a.orch.Start(ctx); err != nil {
		a.logger.Debug("Aktivierung abgelehnt", "error", err)
	}
}

// Run pumps activation samples through the detector into the session
// until the context ends. Level updates feed the orchestrator for the
// UIs.
func (a *App) Run(ctx context.Context) error {
	if a.hotkey != nil {
		if err := a.hotkey.Start(); err != nil {
			a.logger.Warn("Hotkey-Registrierung fehlgeschlagen", "error", err)
			a.hotkey = nil
		}
	}

	go a.mux.Run(ctx)
	go a.watchSilence(ctx)

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return ctx.Err()
		case sample, ok := <-a.mux.Samples():
			if !ok {
				a.shutdown()
				return nil
			}
			switch a.detector.Sample(sample.Pressed, sample.At) {
			case activation.IntentStart:
				if err := a.orch.Start(ctx); err != nil {
					a.detector.Reset()
				}
			case activation.IntentStop:
				a.orch.Stop(ctx)
			}
		}
	}
}

// watchSilence stops the session when the trailing-silence limit fires
func (a *App) watchSilence(ctx context.Context) {
	if a.cfg.Audio.SilenceLimitMs <= 0 {
		return
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ch := a.coordinator.SilenceStopped()
			if ch == nil {
				continue
			}
			select {
			case <-ch:
				a.logger.Info("Stille erkannt, Aufnahme wird beendet")
				a.orch.Stop(ctx)
				a.detector.Reset()
			default:
			}
		}
	}
}

func (a *App) shutdown() {
	if a.hotkey != nil {
		a.hotkey.Stop()
	}
	a.manual.Stop()
	a.orch.Cancel()
	a.orch.Wait()
	a.orch.Close()
	if a.hist != nil {
		a.hist.Close()
	}
	if c, ok := a.transcriber.(interface{ Close() error }); ok {
		c.Close()
	}
	close(a.states)
	close(a.updates)
}

// prepFunc adapts a function to the session.Preparer interface
type prepFunc func(ctx context.Context) error

func (f prepFunc) Prepare(ctx context.Context) error { return f(ctx) }

// ocrLanguages maps the dictation language to tesseract codes
func ocrLanguages(lang textproc.Language) string {
	switch lang {
	case textproc.LangDE:
		return "deu+eng"
	case textproc.LangEN:
		return "eng"
	default:
		return "chi_sim+chi_tra+eng"
	}
}
