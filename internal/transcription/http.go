package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"audio-transcription/internal/domain"
)

const (
	// FileField is the multipart field carrying the media.
	FileField = "file"
	// TranscribePath is appended to the endpoint.
	TranscribePath = "/transcribe"

	maxErrorBody = 4 << 10
)

// response is the success body returned by the backend.
type response struct {
	Text string `json:"text"`
}

// HTTPClient posts artifacts to <endpoint>/transcribe.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

// NewHTTPClient creates a client. A zero timeout waits indefinitely.
func NewHTTPClient(endpoint string, timeout time.Duration, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// URL returns the full upload address.
func (c *HTTPClient) URL() string {
	return c.endpoint + TranscribePath
}

// Transcribe uploads the artifact and returns the text field of the reply.
func (c *HTTPClient) Transcribe(ctx context.Context, artifact domain.Artifact) (string, error) {
	body, contentType, err := encodeMultipart(artifact)
	if err != nil {
		return "", &Error{Op: "encode upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), body)
	if err != nil {
		return "", &Error{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return "", ctxErr
		}
		return "", &Error{Op: "send request", Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("url", c.URL()).
		Int("status", resp.StatusCode).
		Int("bytes", artifact.Size()).
		Dur("took", time.Since(started)).
		Msg("transcription response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &Error{
			Op:         "server rejected upload",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{Op: "decode response", StatusCode: resp.StatusCode, Err: err}
	}
	return out.Text, nil
}

// encodeMultipart builds the body with a single file part.
func encodeMultipart(artifact domain.Artifact) (io.Reader, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	partType := artifact.ContentType
	if partType == "" {
		partType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FileField, uploadName(artifact)))
	header.Set("Content-Type", partType)

	fw, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(artifact.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &body, mw.FormDataContentType(), nil
}
