// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     models
// Description: Tests for the readiness tracker
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package models

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTrackerSuccessfulLoadSequence(t *testing.T) {
	tr := NewTracker(true)

	var kinds []StatusKind
	var fractions []float64
	tr.Subscribe(func(u Update) {
		kinds = append(kinds, u.Status.Kind)
		fractions = append(fractions, u.Fraction)
	})

	tr.SetStatus(Status{Kind: StatusDownloading})
	tr.StageProgress(0.5, 500, 1000, 0)
	tr.StageProgress(1, 1000, 1000, 0)
	tr.SetStatus(Status{Kind: StatusCompiling})
	tr.StageProgress(1, 0, 0, 0)
	tr.SetStatus(Status{Kind: StatusLoading})
	tr.SetStatus(Status{Kind: StatusDownloaded})
	tr.SetStatus(Status{Kind: StatusReady})

	wantKinds := []StatusKind{
		StatusDownloading, StatusDownloading, StatusDownloading,
		StatusCompiling, StatusCompiling,
		StatusLoading,
		StatusDownloaded, StatusReady,
	}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("got %d updates %v, want %d", len(kinds), kinds, len(wantKinds))
	}
	for i := range wantKinds {
		if kinds[i] != wantKinds[i] {
			t.Errorf("update %d = %v, want %v", i, kinds[i], wantKinds[i])
		}
	}

	// Overall progress is monotonically non-decreasing
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Errorf("progress regressed at %d: %v -> %v", i, fractions[i-1], fractions[i])
		}
	}
	if fractions[len(fractions)-1] != 1 {
		t.Errorf("final fraction = %v, want 1", fractions[len(fractions)-1])
	}
}

func TestTrackerStageMapping(t *testing.T) {
	tests := []struct {
		stage StatusKind
		frac  float64
		want  float64
	}{
		{StatusDownloading, 0, 0},
		{StatusDownloading, 0.5, 0.3},
		{StatusDownloading, 1, 0.6},
		{StatusCompiling, 0, 0.6},
		{StatusCompiling, 1, 0.85},
		{StatusLoading, 0, 0.85},
		{StatusLoading, 1, 1},
	}

	for _, tt := range tests {
		tr := NewTracker(true)
		tr.SetStatus(Status{Kind: tt.stage})
		tr.StageProgress(tt.frac, 0, 0, 0)
		if got := tr.Fraction(); !almostEqual(got, tt.want) {
			t.Errorf("stage %v frac %v: overall = %v, want %v", tt.stage, tt.frac, got, tt.want)
		}
	}
}

func TestTrackerClampsRegression(t *testing.T) {
	tr := NewTracker(true)
	tr.SetStatus(Status{Kind: StatusDownloading})
	tr.StageProgress(0.8, 0, 0, 0)
	tr.StageProgress(0.2, 0, 0, 0)

	if got := tr.Fraction(); !almostEqual(got, 0.48) {
		t.Errorf("fraction after regression = %v, want 0.48", got)
	}
}

func TestTrackerProgressIgnoredOutsideStages(t *testing.T) {
	tr := NewTracker(true)
	tr.StageProgress(0.5, 0, 0, 0)
	if got := tr.Fraction(); got != 0 {
		t.Errorf("fraction = %v, want 0 outside staged states", got)
	}
}

func TestTrackerReadyForcedThroughDownloaded(t *testing.T) {
	tr := NewTracker(true)

	var kinds []StatusKind
	tr.Subscribe(func(u Update) { kinds = append(kinds, u.Status.Kind) })

	tr.SetStatus(Status{Kind: StatusLoading})
	tr.SetStatus(Status{Kind: StatusReady})

	want := []StatusKind{StatusLoading, StatusDownloaded, StatusReady}
	if len(kinds) != len(want) {
		t.Fatalf("updates = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("update %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestTrackerGenerationEngineGoesStraightToReady(t *testing.T) {
	tr := NewTracker(false)

	var kinds []StatusKind
	tr.Subscribe(func(u Update) { kinds = append(kinds, u.Status.Kind) })

	tr.SetStatus(Status{Kind: StatusReady})

	if len(kinds) != 1 || kinds[0] != StatusReady {
		t.Fatalf("updates = %v, want [ready]", kinds)
	}
	if !tr.IsReady() {
		t.Error("expected ready")
	}
}

func TestTrackerErrorThenRetry(t *testing.T) {
	tr := NewTracker(true)
	tr.SetStatus(Status{Kind: StatusDownloading})
	tr.StageProgress(0.9, 0, 0, 0)
	tr.Fail("network down")

	st := tr.Status()
	if st.Kind != StatusError || st.Reason != "network down" {
		t.Fatalf("status = %v, want error with reason", st)
	}

	// New attempt resets to the stage baseline
	tr.SetStatus(Status{Kind: StatusDownloading})
	if got := tr.Fraction(); got != 0 {
		t.Errorf("fraction after retry = %v, want 0", got)
	}
}
