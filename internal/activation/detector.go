// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     activation
// Description: Hotkey activation policies (long-press, double-tap, toggle)
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package activation

import (
	"time"
)

// Intent is the detector's output for one key-state sample
type Intent int

const (
	// IntentNone - no action
	IntentNone Intent = iota

	// IntentStart - begin a recording session
	IntentStart

	// IntentStop - end the recording session
	IntentStop
)

// String returns the string representation of the intent
func (i Intent) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentStop:
		return "stop"
	default:
		return "none"
	}
}

// Policy selects how raw key-state samples map to intents
type Policy int

const (
	// PolicyLongPress - hold to record, release to stop
	PolicyLongPress Policy = iota

	// PolicyDoubleTap - two quick taps toggle recording
	PolicyDoubleTap

	// PolicyToggle - every tap toggles recording
	PolicyToggle
)

// ParsePolicy converts a configuration string to a Policy
func ParsePolicy(s string) Policy {
	switch s {
	case "doubletap", "double-tap":
		return PolicyDoubleTap
	case "toggle":
		return PolicyToggle
	default:
		return PolicyLongPress
	}
}

// String returns the configuration name of the policy
func (p Policy) String() string {
	switch p {
	case PolicyDoubleTap:
		return "doubletap"
	case PolicyToggle:
		return "toggle"
	default:
		return "longpress"
	}
}

// DefaultTapInterval is the maximum delay between two taps of a double-tap
const DefaultTapInterval = 400 * time.Millisecond

// Config holds detector configuration
type Config struct {
	Policy      Policy
	TapInterval time.Duration
}

// Detector turns a stream of boolean key-state samples into intents.
// It models key state only; whether a Start is accepted is the
// orchestrator's decision, and isHolding bookkeeping proceeds either way.
type Detector struct {
	cfg Config

	wasPressed bool
	isHolding  bool
	lastPress  time.Time
	tapCount   int
}

// NewDetector creates a detector for the configured policy
func NewDetector(cfg Config) *Detector {
	if cfg.TapInterval <= 0 {
		cfg.TapInterval = DefaultTapInterval
	}
	return &Detector{cfg: cfg}
}

// Sample processes one key-state sample and returns the resulting intent
func (d *Detector) Sample(pressed bool, at time.Time) Intent {
	var intent Intent
	switch d.cfg.Policy {
	case PolicyDoubleTap:
		intent = d.handleDoubleTap(pressed, at)
	case PolicyToggle:
		intent = d.handleToggle(pressed)
	default:
		intent = d.handleLongPress(pressed)
	}
	d.wasPressed = pressed
	return intent
}

// IsHolding reports whether the current policy considers the key engaged
func (d *Detector) IsHolding() bool {
	return d.isHolding
}

// Reset clears all per-policy state
func (d *Detector) Reset() {
	d.wasPressed = false
	d.isHolding = false
	d.lastPress = time.Time{}
	d.tapCount = 0
}

func (d *Detector) handleLongPress(pressed bool) Intent {
	if pressed && !d.wasPressed && !d.isHolding {
		d.isHolding = true
		return IntentStart
	}
	if !pressed && d.wasPressed && d.isHolding {
		d.isHolding = false
		return IntentStop
	}
	return IntentNone
}

func (d *Detector) handleDoubleTap(pressed bool, at time.Time) Intent {
	if !pressed || d.wasPressed {
		return IntentNone
	}

	if !d.lastPress.IsZero() && at.Sub(d.lastPress) < d.cfg.TapInterval {
		d.tapCount++
	} else {
		d.tapCount = 1
	}
	d.lastPress = at

	if d.tapCount < 2 {
		return IntentNone
	}
	d.tapCount = 0
	return d.toggleHolding()
}

func (d *Detector) handleToggle(pressed bool) Intent {
	if !pressed || d.wasPressed {
		return IntentNone
	}
	return d.toggleHolding()
}

func (d *Detector) toggleHolding() Intent {
	if d.isHolding {
		d.isHolding = false
		return IntentStop
	}
	d.isHolding = true
	return IntentStart
}
