// Package transcription uploads media to a remote speech-to-text service.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"audio-transcription/internal/domain"
)

// DefaultFilename names uploads whose artifact carries no name.
const DefaultFilename = "recording.webm"

// ErrTranscriptionFailed marks any network or server failure.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Transcriber turns one artifact into text.
type Transcriber interface {
	Transcribe(ctx context.Context, artifact domain.Artifact) (string, error)
}

// Error is a transcription failure with optional HTTP context.
type Error struct {
	Op         string `json:"op"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
	Err        error  `json:"-"`
}

// Error formats failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := ErrTranscriptionFailed.Error() + ": " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status=%d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes every *Error match ErrTranscriptionFailed.
func (e *Error) Is(target error) bool {
	return target == ErrTranscriptionFailed
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// uploadName returns the multipart filename for an artifact.
func uploadName(artifact domain.Artifact) string {
	if name := strings.TrimSpace(artifact.Name); name != "" {
		return name
	}
	return DefaultFilename
}

// New selects the backend configured in settings.
func New(settings domain.Settings, log zerolog.Logger) (Transcriber, error) {
	switch settings.Backend {
	case domain.BackendHTTP, "":
		return NewHTTPClient(settings.Endpoint, settings.Timeout(), log), nil
	case domain.BackendOpenAI:
		if strings.TrimSpace(settings.OpenAIAPIKey) == "" {
			return nil, fmt.Errorf("openai backend requires an API key")
		}
		return NewOpenAIClient(settings.OpenAIAPIKey, settings.Timeout(), log), nil
	default:
		return nil, fmt.Errorf("unknown transcription backend: %s", settings.Backend)
	}
}
