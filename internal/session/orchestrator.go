// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     session
// Description: Orchestrates one dictation session from hotkey to cursor
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/msto63/cicero/internal/insert"
	"github.com/msto63/cicero/internal/stt"
	"github.com/msto63/cicero/internal/textproc"
	"github.com/msto63/cicero/pkg/core/logging"
)

// ErrBusy is returned when an activation arrives while a session runs
var ErrBusy = errors.New("session busy")

// ErrModelNotReady is returned when the speech engine cannot transcribe
// and no preparer is wired to make it ready
var ErrModelNotReady = errors.New("speech model not ready")

// Recorder is the microphone side of a session. Implemented by
// audio.Coordinator.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (path string, duration time.Duration, err error)
	Abort()
	Cleanup()
	IsRecording() bool
}

// Transcriber converts a WAV artifact to text. Implemented by the stt
// package engines.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (stt.Result, error)
	IsReady() bool
}

// Preparer makes the speech model ready, downloading it first when
// needed. Wired to the model downloader for the whisper engine.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Processor turns a raw transcript into final text. Implemented by
// textproc.Pipeline.
type Processor interface {
	Process(ctx context.Context, text string, opts textproc.Options) string
}

// Inserter pastes the result at the cursor. Implemented by
// insert.Inserter.
type Inserter interface {
	Insert(ctx context.Context, text, targetApp string) insert.Result
	CopyToClipboard(text string) error
}

// Historian records finished inputs. Implemented by history.Store.
type Historian interface {
	AddAsync(rawText, processedText string, wasProcessed bool)
	RecentTexts(ctx context.Context, limit int) ([]string, error)
}

// ScreenReader supplies OCR context for the rewrite prompt. Implemented
// by screen.Capturer.
type ScreenReader interface {
	Available() bool
	CaptureAndRecognize(ctx context.Context) string
}

// Config holds the per-session settings snapshot
type Config struct {
	// Language selects transcription hints and filler tables
	Language textproc.Language

	// UseGeneration selects the rewrite path; false inserts the
	// deterministic cleanup
	UseGeneration bool

	// UseScreenContext enables the detached screen OCR task during
	// recording
	UseScreenContext bool

	// StylePrompt is the user's extra style instruction
	StylePrompt string

	// TargetApp names the application to activate before pasting.
	// Empty pastes into the frontmost window.
	TargetApp string

	// RecentInputCount is how many history entries feed the prompt
	RecentInputCount int

	// OnInsertFailed is called when pasting probably failed. The text
	// has already been placed on the clipboard.
	OnInsertFailed func(text, reason string)
}

const (
	msgReady        = "Bereit"
	msgDownloading  = "Sprachmodell wird vorbereitet"
	msgRecording    = "Aufnahme läuft"
	msgTranscribing = "Transkription läuft"
	msgProcessing   = "Text wird überarbeitet"
	msgInserting    = "Text wird eingefügt"
	msgDone         = "Fertig"
	msgBusy         = "Noch beschäftigt, Eingabe verworfen"
)

// busyHintDuration is how long the busy message stays before the
// previous status returns
const busyHintDuration = 2 * time.Second

// overlayDuration is how long the done and error states stay visible
// before the session returns to idle
const overlayDuration = 1500 * time.Millisecond

// Orchestrator drives one dictation session at a time through its
// phases. A single owner goroutine executes every state mutation,
// consumed from a command queue; the long-running stages run in one
// worker goroutine per session that reports back through the queue and
// checks for cancellation between stages.
type Orchestrator struct {
	recorder    Recorder
	transcriber Transcriber
	processor   Processor
	inserter    Inserter
	history     Historian
	screen      ScreenReader
	logger      *logging.Logger

	cmds chan func()
	quit chan struct{}

	// Owned by the command loop, never touched from outside it
	cfg        Config
	preparer   Preparer
	state      State
	listeners  []func(State)
	prepCancel context.CancelFunc
	procCancel context.CancelFunc
	procDone   chan struct{}
	screenCh   chan string
}

// New creates an orchestrator and starts its command loop. history and
// screen may be nil.
func New(recorder Recorder, transcriber Transcriber, processor Processor, inserter Inserter, history Historian, screen ScreenReader, cfg Config) *Orchestrator {
	o := &Orchestrator{
		recorder:    recorder,
		transcriber: transcriber,
		processor:   processor,
		inserter:    inserter,
		history:     history,
		screen:      screen,
		cfg:         cfg,
		state:       State{Phase: PhaseIdle, Message: msgReady},
		logger:      logging.New("session"),
		cmds:        make(chan func(), 64),
		quit:        make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *Orchestrator) loop() {
	for {
		select {
		case cmd := <-o.cmds:
			cmd()
		case <-o.quit:
			return
		}
	}
}

// call runs fn on the owner goroutine and waits for it. Must not be
// used from inside a command.
func (o *Orchestrator) call(fn func()) {
	done := make(chan struct{})
	select {
	case o.cmds <- func() { fn(); close(done) }:
		<-done
	case <-o.quit:
	}
}

// cast hands fn to the owner goroutine without waiting for it
func (o *Orchestrator) cast(fn func()) {
	select {
	case o.cmds <- fn:
	case <-o.quit:
	}
}

// Close stops the command loop. The orchestrator must not be used
// afterwards.
func (o *Orchestrator) Close() {
	close(o.quit)
}

// Subscribe registers a state listener. Listeners are called from the
// owner goroutine in registration order and must not block.
func (o *Orchestrator) Subscribe(fn func(State)) {
	o.call(func() { o.listeners = append(o.listeners, fn) })
}

// State returns the current snapshot
func (o *Orchestrator) State() State {
	var st State
	o.call(func() { st = o.state })
	return st
}

// SetConfig replaces the settings snapshot for future sessions
func (o *Orchestrator) SetConfig(cfg Config) {
	o.call(func() { o.cfg = cfg })
}

// SetPreparer wires the model preparer used when an activation arrives
// before the speech engine is ready
func (o *Orchestrator) SetPreparer(p Preparer) {
	o.call(func() { o.preparer = p })
}

// SetAudioLevel publishes the microphone level during recording. Wired
// to the recorder's level callback; dropped when the queue is full so
// the audio callback never blocks.
func (o *Orchestrator) SetAudioLevel(level float64) {
	select {
	case o.cmds <- func() {
		if o.state.Phase != PhaseRecording {
			return
		}
		o.state.AudioLevel = level
		o.publish()
	}:
	default:
	}
}

// Start begins a new session. With the speech model not yet ready the
// session enters the downloading phase and records once the model is
// prepared. A busy session rejects the activation with ErrBusy and
// flashes a transient hint; the running session is not disturbed.
func (o *Orchestrator) Start(ctx context.Context) error {
	var err error
	o.call(func() { err = o.start(ctx) })
	return err
}

// start runs on the owner goroutine
func (o *Orchestrator) start(ctx context.Context) error {
	if o.state.Phase.IsBusy() {
		o.logger.Info("Aktivierung verworfen", "phase", o.state.Phase.String())
		saved := o.state.Message
		o.state.Message = msgBusy
		o.publish()
		time.AfterFunc(busyHintDuration, func() {
			o.cast(func() {
				if o.state.Message != msgBusy {
					return
				}
				o.state.Message = saved
				o.publish()
			})
		})
		return ErrBusy
	}
	if o.state.Phase == PhaseDownloading {
		return ErrBusy
	}

	if !o.transcriber.IsReady() {
		if o.preparer == nil {
			o.fail("Sprachmodell nicht bereit")
			return ErrModelNotReady
		}
		o.beginDownloading(ctx)
		return nil
	}

	return o.beginRecording(ctx)
}

// beginDownloading prepares the model and proceeds to recording once it
// is ready. Runs on the owner goroutine.
func (o *Orchestrator) beginDownloading(ctx context.Context) {
	prepCtx, cancel := context.WithCancel(ctx)
	o.prepCancel = cancel
	o.state = State{Phase: PhaseDownloading, Message: msgDownloading}
	o.publish()

	go func() {
		err := o.preparer.Prepare(prepCtx)
		o.cast(func() {
			if o.state.Phase != PhaseDownloading {
				return
			}
			o.prepCancel = nil
			if err != nil {
				o.logger.Error("Modellvorbereitung fehlgeschlagen", "error", err)
				o.fail("Sprachmodell konnte nicht geladen werden")
				return
			}
			o.beginRecording(ctx)
		})
	}()
}

// beginRecording resets the session and starts capture. Runs on the
// owner goroutine.
func (o *Orchestrator) beginRecording(ctx context.Context) error {
	// A leftover worker from a finished session cannot be running
	// anymore, but its cancel func may still be set
	if o.procCancel != nil {
		o.procCancel()
		o.procCancel = nil
	}

	cfg := o.cfg
	o.state = State{Phase: PhaseRecording, Message: msgRecording}

	// Screen OCR runs detached during recording so its latency hides
	// behind the speech
	o.screenCh = nil
	if cfg.UseScreenContext && cfg.UseGeneration && o.screen != nil && o.screen.Available() {
		ch := make(chan string, 1)
		o.screenCh = ch
		go func() {
			ch <- o.screen.CaptureAndRecognize(ctx)
		}()
	}
	o.publish()

	if err := o.recorder.Start(ctx); err != nil {
		o.logger.Error("Mikrofonstart fehlgeschlagen", "error", err)
		o.fail("Mikrofon nicht verfügbar")
		return err
	}
	return nil
}

// Stop ends the recording and hands the artifact to the processing
// worker. Stop while not recording is ignored, except that it abandons
// a session still waiting for the model.
func (o *Orchestrator) Stop(ctx context.Context) error {
	var err error
	o.call(func() { err = o.stop() })
	return err
}

// stop runs on the owner goroutine
func (o *Orchestrator) stop() error {
	if o.state.Phase == PhaseDownloading {
		// The key was released before the model became ready; the
		// preparation continues in the background but no recording
		// starts from it
		if o.prepCancel != nil {
			o.prepCancel()
			o.prepCancel = nil
		}
		o.reset()
		return nil
	}
	if o.state.Phase != PhaseRecording {
		o.logger.Info("Stopp ignoriert", "phase", o.state.Phase.String())
		return nil
	}

	o.state.Phase = PhaseTranscribing
	o.state.Message = msgTranscribing
	o.state.AudioLevel = 0
	cfg := o.cfg
	screenCh := o.screenCh
	o.screenCh = nil

	procCtx, cancel := context.WithCancel(context.Background())
	o.procCancel = cancel
	done := make(chan struct{})
	o.procDone = done
	o.publish()

	artifact, duration, err := o.recorder.Stop()
	if err != nil {
		cancel()
		o.fail("Aufnahme fehlgeschlagen: " + err.Error())
		close(done)
		return err
	}
	o.logger.Info("Aufnahme beendet", "duration", duration, "artifact", artifact)

	go o.process(procCtx, artifact, cfg, screenCh, done)
	return nil
}

// Cancel aborts a running session. A recording is discarded, a running
// worker stops at its next stage boundary without inserting anything.
func (o *Orchestrator) Cancel() {
	o.call(func() {
		switch o.state.Phase {
		case PhaseRecording:
			o.recorder.Abort()
			o.reset()
		case PhaseDownloading:
			if o.prepCancel != nil {
				o.prepCancel()
				o.prepCancel = nil
			}
			o.reset()
		default:
			if o.procCancel != nil {
				o.procCancel()
			}
		}
	})
}

// Wait blocks until the current processing worker finishes. Test and
// shutdown helper.
func (o *Orchestrator) Wait() {
	var done chan struct{}
	o.call(func() { done = o.procDone })
	if done != nil {
		<-done
	}
}

// process runs transcription, rewrite and insertion in the worker
// goroutine. State changes go through the owner; cancellation is
// checked after every stage and resets to idle without side effects.
func (o *Orchestrator) process(ctx context.Context, artifact string, cfg Config, screenCh chan string, done chan struct{}) {
	defer close(done)
	defer o.recorder.Cleanup()

	result, err := o.transcriber.TranscribeFile(ctx, artifact)
	if ctx.Err() != nil {
		o.call(o.reset)
		return
	}
	if err != nil {
		o.logger.Error("Transkription fehlgeschlagen", "error", err)
		o.call(func() { o.fail("Transkription fehlgeschlagen: " + err.Error()) })
		return
	}

	raw := strings.TrimSpace(result.Text)
	o.call(func() { o.state.RawTranscription = raw })

	if raw == "" {
		o.logger.Info("Leere Transkription, Sitzung beendet")
		o.call(o.reset)
		return
	}

	opts := textproc.Options{
		Language:      cfg.Language,
		StylePrompt:   cfg.StylePrompt,
		UseGeneration: cfg.UseGeneration,
	}

	if cfg.UseGeneration {
		o.call(func() {
			o.state.Phase = PhaseProcessing
			o.state.Message = msgProcessing
			o.publish()
		})

		if screenCh != nil {
			select {
			case opts.ScreenContext = <-screenCh:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			o.call(o.reset)
			return
		}

		if o.history != nil && cfg.RecentInputCount > 0 {
			if texts, err := o.history.RecentTexts(ctx, cfg.RecentInputCount); err == nil {
				opts.RecentInputs = strings.Join(texts, "\n")
			}
		}
	}

	final := o.processor.Process(ctx, raw, opts)
	if ctx.Err() != nil {
		o.call(o.reset)
		return
	}

	o.call(func() {
		o.state.ProcessedText = final
		o.state.Phase = PhaseInserting
		o.state.Message = msgInserting
		o.publish()
	})

	insertResult := o.inserter.Insert(ctx, final, cfg.TargetApp)

	// A cancel landing while the paste ran: drop the session without
	// recording it or showing done
	if ctx.Err() != nil {
		o.call(o.reset)
		return
	}

	if o.history != nil {
		o.history.AddAsync(raw, final, cfg.UseGeneration)
	}

	o.call(func() {
		o.state.LastInserted = final
		o.state.Phase = PhaseDone
		o.state.Message = msgDone
		o.publish()
		o.idleAfter(PhaseDone)
	})

	if insertResult.ProbablyFailed {
		o.logger.Info("Einfügen vermutlich fehlgeschlagen", "reason", insertResult.Reason)
		if err := o.inserter.CopyToClipboard(final); err != nil {
			o.logger.Warn("Zwischenablage nicht beschreibbar", "error", err)
		}
		if cfg.OnInsertFailed != nil {
			cfg.OnInsertFailed(final, insertResult.Reason)
		}
	}
}

// fail enters the error phase. Runs on the owner goroutine.
func (o *Orchestrator) fail(msg string) {
	o.state.Phase = PhaseError
	o.state.Err = msg
	o.state.Message = msg
	o.publish()
	o.idleAfter(PhaseError)
}

// reset returns to idle. Runs on the owner goroutine.
func (o *Orchestrator) reset() {
	o.state = State{Phase: PhaseIdle, Message: msgReady}
	o.publish()
}

// idleAfter returns to idle once the done or error state has been
// visible long enough. A phase change in the meantime wins.
func (o *Orchestrator) idleAfter(from Phase) {
	time.AfterFunc(overlayDuration, func() {
		o.cast(func() {
			if o.state.Phase != from {
				return
			}
			o.reset()
		})
	})
}

// publish fans the current snapshot out to the listeners. Runs on the
// owner goroutine.
func (o *Orchestrator) publish() {
	st := o.state
	for _, fn := range o.listeners {
		fn(st)
	}
}
