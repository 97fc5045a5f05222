// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     audio
// Description: Recording coordinator tying capture, meter and VAD together
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/msto63/cicero/pkg/core/logging"
)

// CoordinatorConfig configures one recording coordinator
type CoordinatorConfig struct {
	Capture CaptureConfig

	// OnLevel receives a display level in [0,1] per captured buffer.
	// Called from the collection goroutine; must not block.
	OnLevel func(float64)

	// SilenceLimit ends the recording after this much trailing silence
	// once speech was heard. Zero disables auto-stop.
	SilenceLimit time.Duration

	// VADMode is the WebRTC aggressiveness (0-3) when auto-stop or
	// trimming is enabled
	VADMode int

	// TrimArtifact cuts leading/trailing silence from the WAV artifact
	TrimArtifact bool
}

// Coordinator runs one recording at a time: microphone samples flow
// into the session buffer, the level meter and optionally the VAD.
// Stop finalizes a temp WAV artifact for the transcriber.
type Coordinator struct {
	cfg    CoordinatorConfig
	logger *logging.Logger

	mu           sync.Mutex
	capture      *Capture
	buffer       *Buffer
	vad          *VAD
	cancel       context.CancelFunc
	collectDone  chan struct{}
	silenceCh    chan struct{}
	lastArtifact string
	recording    bool
}

// NewCoordinator creates a coordinator
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		logger: logging.New("audio"),
	}
}

// SilenceStopped returns a channel that fires once per recording when
// the trailing-silence limit is exceeded. Nil until Start.
func (c *Coordinator) SilenceStopped() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.silenceCh
}

// Start opens the microphone and begins collecting into a fresh buffer
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording {
		return fmt.Errorf("recording already running")
	}

	capture, err := NewCapture(c.cfg.Capture)
	if err != nil {
		return fmt.Errorf("failed to init capture: %w", err)
	}

	var vad *VAD
	if c.cfg.SilenceLimit > 0 || c.cfg.TrimArtifact {
		vad, err = NewVAD(int(c.cfg.Capture.SampleRate), c.cfg.VADMode)
		if err != nil {
			// Recording still works without VAD, only auto-stop and
			// trimming are lost
			c.logger.Warn("VAD unavailable", "error", err)
			vad = nil
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := capture.Start(runCtx); err != nil {
		cancel()
		capture.Close()
		return fmt.Errorf("failed to start capture: %w", err)
	}

	c.capture = capture
	c.vad = vad
	c.buffer = NewBuffer()
	c.cancel = cancel
	c.collectDone = make(chan struct{})
	c.silenceCh = make(chan struct{}, 1)
	c.recording = true

	go c.collect(runCtx)

	c.logger.Info("recording started",
		"sampleRate", c.cfg.Capture.SampleRate,
		"device", c.cfg.Capture.DeviceName)
	return nil
}

func (c *Coordinator) collect(ctx context.Context) {
	defer close(c.collectDone)

	var watcher *SilenceWatcher
	if c.vad != nil && c.cfg.SilenceLimit > 0 {
		watcher = NewSilenceWatcher(c.cfg.SilenceLimit)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case samples, ok := <-c.capture.Output():
			if !ok {
				return
			}
			c.buffer.Append(samples)

			if c.cfg.OnLevel != nil {
				c.cfg.OnLevel(Level(samples))
			}

			if watcher != nil {
				speech, err := c.vad.IsSpeech(samples)
				if err == nil && watcher.Observe(speech, time.Now()) {
					select {
					case c.silenceCh <- struct{}{}:
					default:
					}
					watcher.Reset()
				}
			}
		}
	}
}

// Stop ends the recording and writes the WAV artifact. It returns the
// artifact path and the recorded duration.
func (c *Coordinator) Stop() (string, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.recording {
		return "", 0, fmt.Errorf("no recording running")
	}
	c.recording = false

	c.cancel()
	c.capture.Close()
	<-c.collectDone

	samples := c.buffer.Samples()
	rate := int(c.cfg.Capture.SampleRate)

	if c.cfg.TrimArtifact && c.vad != nil {
		frameSize := rate / 100
		samples = TrimSilence(samples, frameSize, func(frame []float32) bool {
			speech, err := c.vad.IsSpeech(frame)
			return err == nil && speech
		})
	}

	duration := time.Duration(float64(len(samples)) / float64(rate) * float64(time.Second))

	path := filepath.Join(os.TempDir(), fmt.Sprintf("cicero_%d.wav", time.Now().UnixNano()))
	if err := WriteWAV(path, samples, rate); err != nil {
		return "", 0, fmt.Errorf("failed to write artifact: %w", err)
	}

	c.lastArtifact = path
	c.capture = nil
	c.vad = nil

	c.logger.Info("recording stopped", "duration", duration, "artifact", path)
	return path, duration, nil
}

// Abort ends the recording discarding all samples
func (c *Coordinator) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.recording {
		return
	}
	c.recording = false
	c.cancel()
	c.capture.Close()
	<-c.collectDone
	c.capture = nil
	c.vad = nil
	c.logger.Info("recording aborted")
}

// LastArtifact returns the path of the last finalized WAV artifact
func (c *Coordinator) LastArtifact() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastArtifact
}

// Cleanup removes the last artifact from disk
func (c *Coordinator) Cleanup() {
	c.mu.Lock()
	path := c.lastArtifact
	c.lastArtifact = ""
	c.mu.Unlock()

	if path != "" {
		os.Remove(path)
	}
}

// IsRecording reports whether a recording is active
func (c *Coordinator) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}
