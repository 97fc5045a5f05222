// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     stt
// Description: Whisper transcription using the whisper.cpp CLI
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/msto63/cicero/pkg/core/logging"
)

// WhisperCLI transcribes via the whisper.cpp command line binary
type WhisperCLI struct {
	mu         sync.RWMutex
	binaryPath string
	modelPath  string
	language   string
	numThreads int
	ready      bool
	logger     *logging.Logger
}

// NewWhisperCLI locates the binary and prepares a transcriber. The
// model is attached later through Load, so the engine can exist while
// the model is still downloading.
func NewWhisperCLI(cfg Config) (*WhisperCLI, error) {
	binaryPath := findWhisperBinary()
	if binaryPath == "" {
		return nil, fmt.Errorf("whisper binary not found, install whisper.cpp (whisper-cli)")
	}

	return &WhisperCLI{
		binaryPath: binaryPath,
		modelPath:  cfg.ModelPath,
		language:   cfg.Language,
		numThreads: cfg.NumThreads,
		logger:     logging.New("stt"),
	}, nil
}

// findWhisperBinary probes PATH and the usual install locations
func findWhisperBinary() string {
	if path, err := exec.LookPath("whisper-cli"); err == nil {
		return path
	}
	if path, err := exec.LookPath("whisper"); err == nil {
		return path
	}

	locations := []string{
		"/opt/homebrew/bin/whisper-cli",
		"/opt/homebrew/bin/whisper",
		"/usr/local/bin/whisper-cli",
		"/usr/local/bin/whisper",
		"/usr/bin/whisper",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Load attaches downloaded model weights, satisfying models.Loader
func (w *WhisperCLI) Load(_ context.Context, modelPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		return fmt.Errorf("model file not found: %w", err)
	}

	w.mu.Lock()
	w.modelPath = modelPath
	w.ready = true
	w.mu.Unlock()

	w.logger.Info("whisper model attached", "model", modelPath)
	return nil
}

// IsReady reports whether a model is attached
func (w *WhisperCLI) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ready
}

// TranscribeFile runs the CLI on a WAV artifact
func (w *WhisperCLI) TranscribeFile(ctx context.Context, path string) (Result, error) {
	w.mu.RLock()
	modelPath := w.modelPath
	language := w.language
	numThreads := w.numThreads
	ready := w.ready
	w.mu.RUnlock()

	if !ready {
		return Result{}, fmt.Errorf("whisper model not loaded")
	}

	start := time.Now()

	args := []string{
		"--model", modelPath,
		"--language", language,
		"--no-prints",
		"--no-timestamps",
		path,
	}
	if numThreads > 0 {
		args = append(args, "--threads", strconv.Itoa(numThreads))
	}

	cmd := exec.CommandContext(ctx, w.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Older builds only understand the short flags
		args2 := []string{"-m", modelPath, "-l", language, "-np", path}
		cmd2 := exec.CommandContext(ctx, w.binaryPath, args2...)
		stdout.Reset()
		stderr.Reset()
		cmd2.Stdout = &stdout
		cmd2.Stderr = &stderr

		if err2 := cmd2.Run(); err2 != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			return Result{}, fmt.Errorf("whisper failed: %w, stderr: %s", err, stderr.String())
		}
	}

	text := cleanWhisperOutput(stdout.String())
	elapsed := time.Since(start)

	w.logger.Info("transcribed", "chars", len(text), "elapsed", elapsed)

	return Result{
		Text:     text,
		Language: language,
		Duration: float32(elapsed.Seconds()),
	}, nil
}

// cleanWhisperOutput strips timestamp prefixes some builds emit even
// with --no-timestamps (format: [00:00:00.000 --> 00:00:05.000] text)
func cleanWhisperOutput(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	var cleanLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	return strings.Join(cleanLines, " ")
}

// SetLanguage updates the transcription language
func (w *WhisperCLI) SetLanguage(language string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.language = language
}

// Close releases resources
func (w *WhisperCLI) Close() error {
	return nil
}
