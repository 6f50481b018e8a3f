package transcription

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"audio-transcription/internal/domain"
)

// audioAPI is the slice of the OpenAI client used here.
type audioAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAIClient transcribes through the OpenAI audio API.
type OpenAIClient struct {
	api     audioAPI
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewOpenAIClient creates a whisper-1 client.
func NewOpenAIClient(apiKey string, timeout time.Duration, log zerolog.Logger) *OpenAIClient {
	return newOpenAIClient(openai.NewClient(apiKey), timeout, log)
}

func newOpenAIClient(api audioAPI, timeout time.Duration, log zerolog.Logger) *OpenAIClient {
	return &OpenAIClient{api: api, model: openai.Whisper1, timeout: timeout, log: log}
}

// Transcribe uploads the artifact bytes and returns the plain text.
func (c *OpenAIClient) Transcribe(ctx context.Context, artifact domain.Artifact) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: uploadName(artifact),
		Reader:   bytes.NewReader(artifact.Data),
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", context.Canceled
		}
		e := &Error{Op: "openai transcription", Err: err}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			e.StatusCode = apiErr.HTTPStatusCode
		}
		c.log.Debug().Err(err).Msg("openai transcription failed")
		return "", e
	}
	return resp.Text, nil
}
