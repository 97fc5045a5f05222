// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     models
// Description: Model readiness tracking with staged progress mapping
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package models

import (
	"fmt"
	"sync"
)

// StatusKind enumerates the lifecycle states of a model
type StatusKind int

const (
	StatusNotDownloaded StatusKind = iota
	StatusDownloading
	StatusCompiling
	StatusLoading
	StatusDownloaded
	StatusReady
	StatusError
)

// String returns the string representation of the status kind
func (k StatusKind) String() string {
	switch k {
	case StatusNotDownloaded:
		return "not-downloaded"
	case StatusDownloading:
		return "downloading"
	case StatusCompiling:
		return "compiling"
	case StatusLoading:
		return "loading"
	case StatusDownloaded:
		return "downloaded"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is the tagged status value. Reason is set for StatusError only.
type Status struct {
	Kind   StatusKind
	Reason string
}

// String renders the status including the error reason
func (s Status) String() string {
	if s.Kind == StatusError && s.Reason != "" {
		return fmt.Sprintf("error: %s", s.Reason)
	}
	return s.Kind.String()
}

// IsBusy reports whether the model is in a transitional state
func (s Status) IsBusy() bool {
	switch s.Kind {
	case StatusDownloading, StatusCompiling, StatusLoading:
		return true
	}
	return false
}

// Update is delivered to listeners on every status or progress change
type Update struct {
	Status Status

	// Fraction is the overall progress in [0,1] across all stages
	Fraction float64

	// Stage byte counters, zero outside the download stage
	CompletedBytes   int64
	TotalBytes       int64
	SpeedBytesPerSec float64
}

// stage sub-ranges of the overall progress bar
var stageRanges = map[StatusKind][2]float64{
	StatusDownloading: {0.0, 0.6},
	StatusCompiling:   {0.6, 0.85},
	StatusLoading:     {0.85, 1.0},
}

// Tracker maps per-stage progress onto one continuous progress bar and
// fans updates out to listeners. A speech model must pass through
// Downloaded before Ready; a generation engine constructed with
// requiresDownload=false may go straight to Ready.
type Tracker struct {
	mu               sync.Mutex
	status           Status
	fraction         float64
	requiresDownload bool
	listeners        []func(Update)
}

// NewTracker creates a tracker in the NotDownloaded state
func NewTracker(requiresDownload bool) *Tracker {
	return &Tracker{
		status:           Status{Kind: StatusNotDownloaded},
		requiresDownload: requiresDownload,
	}
}

// Subscribe registers a listener for all subsequent updates. The
// listener is invoked synchronously with the tracker unlocked.
func (t *Tracker) Subscribe(fn func(Update)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Status returns the current status
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Fraction returns the current overall progress
func (t *Tracker) Fraction() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fraction
}

// IsReady reports whether the model reached Ready
func (t *Tracker) IsReady() bool {
	return t.Status().Kind == StatusReady
}

// SetStatus transitions to the given status. Entering a staged state
// moves the progress bar to the stage baseline; Ready forces the bar
// to 1. A speech model transitioning to Ready from a non-Downloaded
// state passes through Downloaded first so observers always see the
// full sequence.
func (t *Tracker) SetStatus(s Status) {
	t.mu.Lock()

	var updates []Update

	if s.Kind == StatusReady && t.requiresDownload && t.status.Kind != StatusDownloaded {
		t.status = Status{Kind: StatusDownloaded}
		updates = append(updates, Update{Status: t.status, Fraction: t.fraction})
	}

	switch s.Kind {
	case StatusDownloading, StatusCompiling, StatusLoading:
		if lo := stageRanges[s.Kind][0]; t.fraction < lo || t.status.Kind == StatusError {
			t.fraction = lo
		}
	case StatusReady:
		t.fraction = 1
	case StatusNotDownloaded:
		t.fraction = 0
	}

	t.status = s
	updates = append(updates, t.updateLocked())
	listeners := append([]func(Update){}, t.listeners...)
	t.mu.Unlock()

	for _, u := range updates {
		for _, fn := range listeners {
			fn(u)
		}
	}
}

// Fail records a terminal error with a reason. A later SetStatus with
// StatusDownloading starts a fresh attempt.
func (t *Tracker) Fail(reason string) {
	t.SetStatus(Status{Kind: StatusError, Reason: reason})
}

// StageProgress reports progress within the current stage, frac in
// [0,1] relative to that stage. Regressions within a stage are
// clamped so the overall bar never moves backwards.
func (t *Tracker) StageProgress(frac float64, completed, total int64, speed float64) {
	t.mu.Lock()

	r, ok := stageRanges[t.status.Kind]
	if !ok {
		t.mu.Unlock()
		return
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	overall := r[0] + frac*(r[1]-r[0])
	if overall > t.fraction {
		t.fraction = overall
	}

	u := t.updateLocked()
	u.CompletedBytes = completed
	u.TotalBytes = total
	u.SpeedBytesPerSec = speed
	listeners := append([]func(Update){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(u)
	}
}

func (t *Tracker) updateLocked() Update {
	return Update{Status: t.status, Fraction: t.fraction}
}
