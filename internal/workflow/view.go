package workflow

import (
	"audio-transcription/internal/domain"
	"audio-transcription/internal/timer"
)

// View is the read-only projection rendered by a frontend.
type View struct {
	Phase         domain.Phase     `json:"phase"`
	Recording     bool             `json:"recording"`
	RecordingTime string           `json:"recordingTime"`
	Text          string           `json:"text"`
	PreviewKind   domain.MediaKind `json:"previewKind,omitempty"`
	PreviewName   string           `json:"previewName,omitempty"`
	PreviewPath   string           `json:"previewPath,omitempty"`
	Busy          bool             `json:"busy"`
	CanExport     bool             `json:"canExport"`
}

// Project derives the view from a state.
func Project(s State) View {
	v := View{
		Phase:         s.Phase,
		Recording:     s.Phase == domain.PhaseRecording,
		RecordingTime: timer.Format(s.Elapsed),
		Text:          s.Text,
		Busy:          s.Phase == domain.PhaseTranscribing,
		CanExport:     s.Text != "",
	}
	if s.Artifact != nil {
		v.PreviewKind = s.Artifact.Kind
		v.PreviewName = s.Artifact.Name
		v.PreviewPath = s.Artifact.Path
	}
	return v
}
