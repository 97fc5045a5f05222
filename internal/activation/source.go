// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     activation
// Description: Key-state sources and the source multiplexer
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package activation

import (
	"context"
	"sync"
	"time"
)

// Sample is one observed key-state change
type Sample struct {
	Pressed bool
	At      time.Time
}

// Source delivers key-state samples from one input mechanism
type Source interface {
	// Start begins delivering samples. It returns an error when the
	// underlying mechanism is unavailable (missing permissions, no
	// display server, unsupported platform).
	Start() error

	// Samples returns the channel samples are delivered on. The channel
	// is closed after Stop.
	Samples() <-chan Sample

	// Stop ends delivery and releases the mechanism
	Stop()
}

// ManualSource is the unprivileged fallback. It has no system hook and
// is driven explicitly, for example from the TUI keyboard handler.
type ManualSource struct {
	mu      sync.Mutex
	ch      chan Sample
	stopped bool
}

// NewManualSource creates a manual source
func NewManualSource() *ManualSource {
	return &ManualSource{ch: make(chan Sample, 16)}
}

// Start is a no-op for the manual source
func (s *ManualSource) Start() error { return nil }

// Samples returns the sample channel
func (s *ManualSource) Samples() <-chan Sample { return s.ch }

// Stop closes the sample channel
func (s *ManualSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.ch)
}

// Press injects a pressed sample
func (s *ManualSource) Press() { s.inject(true) }

// Release injects a released sample
func (s *ManualSource) Release() { s.inject(false) }

// Pulse injects a full press-release pair, as produced by a single tap
func (s *ManualSource) Pulse() {
	s.Press()
	s.Release()
}

func (s *ManualSource) inject(pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	select {
	case s.ch <- Sample{Pressed: pressed, At: time.Now()}:
	default:
		// Drop when the consumer stalls, key state is sampled not queued
	}
}

// Mux merges a privileged source with a fallback source into one stream.
// As soon as the privileged source delivers its first sample the fallback
// is ignored, so a tap never produces two intents.
type Mux struct {
	privileged Source
	fallback   Source

	out chan Sample

	mu             sync.Mutex
	privilegedSeen bool
}

// NewMux creates a multiplexer over the given sources. Either source may
// be nil.
func NewMux(privileged, fallback Source) *Mux {
	return &Mux{
		privileged: privileged,
		fallback:   fallback,
		out:        make(chan Sample, 16),
	}
}

// Samples returns the merged sample stream
func (m *Mux) Samples() <-chan Sample { return m.out }

// Run pumps both sources into the merged stream until the context is
// cancelled or both sources close. It closes the merged stream on return.
func (m *Mux) Run(ctx context.Context) {
	var wg sync.WaitGroup

	if m.privileged != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.pump(ctx, m.privileged, true)
		}()
	}
	if m.fallback != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.pump(ctx, m.fallback, false)
		}()
	}

	wg.Wait()
	close(m.out)
}

func (m *Mux) pump(ctx context.Context, src Source, privileged bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-src.Samples():
			if !ok {
				return
			}
			if !m.admit(privileged) {
				continue
			}
			select {
			case m.out <- s:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (m *Mux) admit(privileged bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if privileged {
		m.privilegedSeen = true
		return true
	}
	return !m.privilegedSeen
}
