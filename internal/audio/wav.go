// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     audio
// Description: WAV encoding for the recording artifact
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package audio

import (
	"encoding/binary"
	"io"
	"os"
)

// EncodeWAV writes samples as 16-bit mono PCM WAV
func EncodeWAV(w io.Writer, samples []float32, sampleRate int) error {
	int16Samples := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		int16Samples[i] = int16(s * 32767)
	}

	numChannels := uint16(1)
	bitsPerSample := uint16(16)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := uint32(len(int16Samples) * 2)

	// RIFF header
	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	binary.Write(w, binary.LittleEndian, uint32(36+dataSize))
	w.Write([]byte("WAVE"))

	// fmt chunk
	w.Write([]byte("fmt "))
	binary.Write(w, binary.LittleEndian, uint32(16)) // chunk size
	binary.Write(w, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(w, binary.LittleEndian, numChannels)
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, byteRate)
	binary.Write(w, binary.LittleEndian, blockAlign)
	binary.Write(w, binary.LittleEndian, bitsPerSample)

	// data chunk
	w.Write([]byte("data"))
	binary.Write(w, binary.LittleEndian, dataSize)

	return binary.Write(w, binary.LittleEndian, int16Samples)
}

// WriteWAV writes samples to a WAV file
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := EncodeWAV(f, samples, sampleRate); err != nil {
		return err
	}
	return f.Close()
}
