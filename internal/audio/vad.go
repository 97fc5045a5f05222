// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     audio
// Description: Voice activity detection for auto-stop and trimming
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"time"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// VAD wraps the WebRTC voice activity detector
type VAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
}

// NewVAD creates a detector. Mode 0-3 sets aggressiveness; sample rate
// must be one WebRTC supports.
func NewVAD(sampleRate, mode int) (*VAD, error) {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d for VAD", sampleRate)
	}
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}

	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	return &VAD{vad: v, sampleRate: sampleRate}, nil
}

// frameSize is 10ms at the configured rate, the smallest WebRTC frame
func (v *VAD) frameSize() int {
	return v.sampleRate / 100
}

// IsSpeech reports whether any 10ms frame in the buffer contains speech
func (v *VAD) IsSpeech(samples []float32) (bool, error) {
	frameSize := v.frameSize()

	int16Samples := float32ToInt16(samples)
	if len(int16Samples) < frameSize {
		padded := make([]int16, frameSize)
		copy(padded, int16Samples)
		int16Samples = padded
	}

	for i := 0; i+frameSize <= len(int16Samples); i += frameSize {
		active, err := v.vad.Process(v.sampleRate, int16ToBytes(int16Samples[i:i+frameSize]))
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}
	return false, nil
}

func float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
	return out
}

func int16ToBytes(samples []int16) []byte {
	bytes := make([]byte, len(samples)*2)
	for i, s := range samples {
		bytes[i*2] = byte(s)
		bytes[i*2+1] = byte(s >> 8)
	}
	return bytes
}

// SilenceWatcher accumulates trailing silence and reports when the
// configured limit is reached. It only arms after the first speech, so
// a slow start does not end the recording.
type SilenceWatcher struct {
	limit time.Duration

	heardSpeech  bool
	silenceStart time.Time
	inSilence    bool
}

// NewSilenceWatcher creates a watcher with the given silence limit
func NewSilenceWatcher(limit time.Duration) *SilenceWatcher {
	return &SilenceWatcher{limit: limit}
}

// Observe records one speech/silence observation and returns true when
// the silence limit has been exceeded after speech was heard
func (s *SilenceWatcher) Observe(speech bool, at time.Time) bool {
	if speech {
		s.heardSpeech = true
		s.inSilence = false
		return false
	}

	if !s.heardSpeech {
		return false
	}
	if !s.inSilence {
		s.inSilence = true
		s.silenceStart = at
		return false
	}
	return at.Sub(s.silenceStart) >= s.limit
}

// Reset clears the watcher for a new recording
func (s *SilenceWatcher) Reset() {
	s.heardSpeech = false
	s.inSilence = false
	s.silenceStart = time.Time{}
}

// TrimSilence cuts leading and trailing non-speech from a recording,
// keeping padding frames on both sides so clipped plosives survive.
// isSpeech classifies one frame; frameSize is in samples.
func TrimSilence(samples []float32, frameSize int, isSpeech func([]float32) bool) []float32 {
	if frameSize <= 0 || len(samples) < frameSize {
		return samples
	}

	numFrames := len(samples) / frameSize
	first, last := -1, -1
	for i := 0; i < numFrames; i++ {
		frame := samples[i*frameSize : (i+1)*frameSize]
		if isSpeech(frame) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	if first < 0 {
		// No speech at all, leave the recording untouched so the
		// transcriber decides
		return samples
	}

	const padFrames = 3
	start := first - padFrames
	if start < 0 {
		start = 0
	}
	end := last + 1 + padFrames
	if end > numFrames {
		end = numFrames
	}

	return samples[start*frameSize : end*frameSize]
}
