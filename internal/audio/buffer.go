// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     audio
// Description: Recording buffer and level metering
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"math"
	"sync"
)

// Buffer collects the samples of one recording session
type Buffer struct {
	mu      sync.RWMutex
	samples []float32
}

// NewBuffer creates a buffer pre-sized for about ten seconds at 16kHz
func NewBuffer() *Buffer {
	return &Buffer{
		samples: make([]float32, 0, DefaultSampleRate*10),
	}
}

// Append adds samples to the buffer
func (b *Buffer) Append(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, samples...)
}

// Samples returns a copy of all collected samples
func (b *Buffer) Samples() []float32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the number of collected samples
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// DurationSeconds returns the recording length at the given rate
func (b *Buffer) DurationSeconds(sampleRate float64) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return float64(len(b.samples)) / sampleRate
}

// Clear drops all samples keeping the allocation
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = b.samples[:0]
}

// Level computes a display level in [0,1] from one sample buffer. RMS
// of speech at normal distance sits well below full scale, the gain
// factor spreads it over the meter.
func Level(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))

	level := rms * 8
	if level > 1 {
		level = 1
	}
	return level
}
