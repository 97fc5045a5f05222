// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     stt
// Description: Speech-to-Text interface
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package stt

import (
	"context"
)

// Transcriber is the interface for speech-to-text engines
type Transcriber interface {
	// TranscribeFile transcribes the WAV artifact at path
	TranscribeFile(ctx context.Context, path string) (Result, error)

	// IsReady reports whether the engine can transcribe right now
	IsReady() bool

	// Close releases resources
	Close() error
}

// Result holds the transcription result
type Result struct {
	// Text is the transcribed text
	Text string

	// Language is the language the engine used
	Language string

	// Partial is true when the engine was cut off and Text holds only
	// what accumulated until then
	Partial bool

	// Duration is the transcription wall time in seconds
	Duration float32
}

// Config holds STT configuration
type Config struct {
	// ModelPath is the path to the ggml model file
	ModelPath string

	// Language is the target language (e.g. "zh", "de", "en", "auto")
	Language string

	// SampleRate is the expected audio sample rate
	SampleRate int

	// NumThreads is the number of whisper threads
	NumThreads int
}

// DefaultConfig returns default STT configuration
func DefaultConfig() Config {
	return Config{
		Language:   "zh",
		SampleRate: 16000,
		NumThreads: 4,
	}
}
