// Package workflow sequences capture, transcription and export behind an
// explicit state value.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"audio-transcription/internal/domain"
)

var (
	// ErrInvalidTransition is returned for events the current phase does not accept.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrStaleResult is returned for a transcription outcome that no longer applies.
	ErrStaleResult = errors.New("stale transcription result")
)

// State is the whole workflow state. Values are never shared: Apply
// returns a new State and leaves its input untouched.
type State struct {
	Phase domain.Phase `json:"phase"`
	// Session is set only while recording.
	Session *domain.RecordingSession `json:"session,omitempty"`
	// Artifact is the current preview source, nil until the first capture or import.
	Artifact *domain.Artifact `json:"artifact,omitempty"`
	// Elapsed is the recording time in seconds; it holds its last value after stop.
	Elapsed int `json:"elapsed"`
	// Text is the latest transcription result.
	Text string `json:"text"`
	// Attempt numbers submissions; while transcribing it names the one in flight.
	Attempt uint64 `json:"attempt"`
}

// Initial returns the idle state with nothing captured.
func Initial() State {
	return State{Phase: domain.PhaseIdle}
}

// Event is an input to Apply.
type Event interface {
	event()
}

// StartRecording opens a new recording session.
type StartRecording struct {
	SessionID string
	At        time.Time
}

// Tick reports whole seconds elapsed in the current session.
type Tick struct {
	Elapsed int
}

// RecordingFailed abandons the current session.
type RecordingFailed struct{}

// StopRecording finalizes the session into an artifact and submits it.
type StopRecording struct {
	Artifact domain.Artifact
}

// Import submits a picked file.
type Import struct {
	Artifact domain.Artifact
}

// Succeeded carries the text returned for one submission.
type Succeeded struct {
	Attempt uint64
	Text    string
}

// Failed reports that one submission produced no text.
type Failed struct {
	Attempt uint64
}

// Reset clears the transcribed text and abandons a pending submission.
type Reset struct{}

func (StartRecording) event()  {}
func (Tick) event()            {}
func (RecordingFailed) event() {}
func (StopRecording) event()   {}
func (Import) event()          {}
func (Succeeded) event()       {}
func (Failed) event()          {}
func (Reset) event()           {}

// Apply returns the state reached from s on ev. On error s is returned
// unchanged.
func Apply(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case StartRecording:
		if s.Phase == domain.PhaseRecording {
			return s, invalid(s.Phase, "start recording")
		}
		next := s
		next.Phase = domain.PhaseRecording
		next.Text = ""
		next.Elapsed = 0
		next.Session = &domain.RecordingSession{ID: e.SessionID, StartedAt: e.At}
		return next, nil

	case Tick:
		if s.Phase != domain.PhaseRecording || s.Session == nil {
			return s, invalid(s.Phase, "tick")
		}
		if e.Elapsed <= s.Elapsed {
			return s, nil
		}
		next := s
		next.Elapsed = e.Elapsed
		return next, nil

	case RecordingFailed:
		if s.Phase != domain.PhaseRecording {
			return s, invalid(s.Phase, "abandon recording")
		}
		next := s
		next.Phase = domain.PhaseIdle
		next.Session = nil
		return next, nil

	case StopRecording:
		if s.Phase != domain.PhaseRecording {
			return s, invalid(s.Phase, "stop recording")
		}
		return submit(s, e.Artifact), nil

	case Import:
		if s.Phase == domain.PhaseRecording {
			return s, invalid(s.Phase, "import file")
		}
		next := submit(s, e.Artifact)
		next.Text = ""
		return next, nil

	case Succeeded:
		if !s.awaiting(e.Attempt) {
			return s, ErrStaleResult
		}
		next := s
		next.Phase = domain.PhaseIdle
		next.Text = e.Text
		return next, nil

	case Failed:
		if !s.awaiting(e.Attempt) {
			return s, ErrStaleResult
		}
		next := s
		next.Phase = domain.PhaseIdle
		return next, nil

	case Reset:
		next := s
		next.Text = ""
		if s.Phase == domain.PhaseTranscribing {
			next.Phase = domain.PhaseIdle
		}
		return next, nil

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}
}

// awaiting reports whether attempt is the submission currently in flight.
func (s State) awaiting(attempt uint64) bool {
	return s.Phase == domain.PhaseTranscribing && s.Attempt == attempt
}

// submit moves to transcribing with a fresh attempt for artifact.
func submit(s State, artifact domain.Artifact) State {
	next := s
	next.Phase = domain.PhaseTranscribing
	next.Session = nil
	next.Artifact = &artifact
	next.Attempt = s.Attempt + 1
	return next
}

func invalid(phase domain.Phase, action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, phase)
}
