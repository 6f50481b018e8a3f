// Package capture turns microphone input or a picked file into an artifact
// ready for upload.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"audio-transcription/internal/domain"
)

// RecordingName is the artifact name given to microphone captures.
const RecordingName = "recording.wav"

var (
	// ErrPermissionDenied is returned when the microphone cannot be opened.
	ErrPermissionDenied = errors.New("microphone access denied")
	// ErrAlreadyCapturing is returned when Start is called twice.
	ErrAlreadyCapturing = errors.New("capture already running")
	// ErrNotCapturing is returned when Stop is called without Start.
	ErrNotCapturing = errors.New("no capture running")
	// ErrNoFileSelected is returned when the picker was dismissed.
	ErrNoFileSelected = errors.New("no file selected")
)

// Stream is a live capture holding the input device.
type Stream interface {
	// Stop releases the device. No chunk is delivered after Stop returns.
	Stop() error
}

// Device is the narrow capability a microphone exposes.
type Device interface {
	// Open starts delivering raw chunks to onChunk until the stream stops.
	Open(ctx context.Context, onChunk func([]byte)) (Stream, error)
	// Encode wraps raw chunks into an uploadable container.
	Encode(chunks [][]byte) (data []byte, contentType string, err error)
}

// Capture owns at most one live stream and the chunks it produced.
type Capture struct {
	device Device
	log    zerolog.Logger

	mu     sync.Mutex
	stream Stream
	chunks [][]byte
}

// New creates a capture adapter over a device.
func New(device Device, log zerolog.Logger) *Capture {
	return &Capture{device: device, log: log}
}

// Start opens the device and begins accumulating chunks.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return ErrAlreadyCapturing
	}

	c.chunks = nil
	stream, err := c.device.Open(ctx, c.appendChunk)
	if err != nil {
		c.log.Warn().Err(err).Msg("open microphone")
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	c.stream = stream
	c.log.Debug().Msg("capture started")
	return nil
}

// appendChunk copies a non-empty chunk into the session buffer.
func (c *Capture) appendChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)

	c.mu.Lock()
	c.chunks = append(c.chunks, buf)
	c.mu.Unlock()
}

// Active reports whether a stream is open.
func (c *Capture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// Stop releases the device and returns the encoded recording.
func (c *Capture) Stop() (domain.Artifact, error) {
	chunks, err := c.release()
	if err != nil {
		return domain.Artifact{}, err
	}

	data, contentType, err := c.device.Encode(chunks)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("encode recording: %w", err)
	}

	c.log.Debug().Int("chunks", len(chunks)).Int("bytes", len(data)).Msg("capture stopped")
	return domain.Artifact{
		Name:        RecordingName,
		Kind:        domain.MediaKindAudio,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Abort releases the device and drops captured chunks.
func (c *Capture) Abort() error {
	_, err := c.release()
	if errors.Is(err, ErrNotCapturing) {
		return nil
	}
	return err
}

// release stops the stream exactly once and hands back its chunks. The
// lock is not held while stopping so in-flight chunk callbacks can finish.
func (c *Capture) release() ([][]byte, error) {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream == nil {
		return nil, ErrNotCapturing
	}

	stopErr := stream.Stop()

	c.mu.Lock()
	chunks := c.chunks
	c.chunks = nil
	c.mu.Unlock()

	if stopErr != nil {
		c.log.Warn().Err(stopErr).Msg("stop microphone stream")
		return nil, fmt.Errorf("stop microphone: %w", stopErr)
	}
	return chunks, nil
}
