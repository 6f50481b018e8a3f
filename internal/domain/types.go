package domain

import (
	"strings"
	"time"
)

// MediaKind tags an artifact for preview and upload.
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
)

// KindFromContentType maps a declared MIME type to a media kind.
func KindFromContentType(contentType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "video") {
		return MediaKindVideo
	}
	return MediaKindAudio
}

// Artifact is one captured recording or imported file. It is never
// modified after creation.
type Artifact struct {
	Name        string    `json:"name"`
	Kind        MediaKind `json:"kind"`
	ContentType string    `json:"contentType"`
	Path        string    `json:"path,omitempty"`
	Data        []byte    `json:"-"`
}

// Size returns the artifact payload length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}

// Phase is the workflow stage shown to the user.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
)

// RecordingSession is one microphone capture attempt.
type RecordingSession struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
}

// Backend names a transcription service implementation.
type Backend string

const (
	BackendHTTP   Backend = "http"
	BackendOpenAI Backend = "openai"
)

// Settings contains user-selectable runtime configuration.
type Settings struct {
	Endpoint     string  `json:"endpoint"`
	Backend      Backend `json:"backend"`
	OpenAIAPIKey string  `json:"openaiApiKey,omitempty"`
	ExportDir    string  `json:"exportDir"`
	// TimeoutSeconds bounds one upload; zero waits indefinitely.
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// Timeout returns the upload timeout as a duration.
func (s Settings) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}
