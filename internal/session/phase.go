// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     session
// Description: Dictation session phases and observable state
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package session

// Phase is the current stage of the dictation session. Exactly one
// session runs at a time; a new activation while the session is busy is
// rejected, not queued.
type Phase int

const (
	// PhaseIdle means the session waits for activation
	PhaseIdle Phase = iota

	// PhaseDownloading means a speech model is being prepared
	PhaseDownloading

	// PhaseRecording means the microphone is open
	PhaseRecording

	// PhaseTranscribing means speech recognition is running
	PhaseTranscribing

	// PhaseProcessing means the rewrite engine is running
	PhaseProcessing

	// PhaseInserting means the result is being pasted at the cursor
	PhaseInserting

	// PhaseDone means the last session finished successfully
	PhaseDone

	// PhaseError means the last session failed
	PhaseError
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDownloading:
		return "downloading"
	case PhaseRecording:
		return "recording"
	case PhaseTranscribing:
		return "transcribing"
	case PhaseProcessing:
		return "processing"
	case PhaseInserting:
		return "inserting"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// IsBusy reports whether an activation must be rejected in this phase.
// Done and error are resting states, a new session may start from them.
func (p Phase) IsBusy() bool {
	switch p {
	case PhaseRecording, PhaseTranscribing, PhaseProcessing, PhaseInserting:
		return true
	default:
		return false
	}
}

// State is a snapshot of the session, published to the UI on every
// change.
type State struct {
	Phase            Phase
	Message          string
	AudioLevel       float64
	RawTranscription string
	ProcessedText    string
	LastInserted     string
	Err              string
}
