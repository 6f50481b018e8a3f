package capture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"audio-transcription/internal/domain"
)

// fakeDevice records Open/Stop calls and lets tests push chunks.
type fakeDevice struct {
	openErr error

	mu      sync.Mutex
	onChunk func([]byte)
	stops   int
	opens   int
}

type fakeStream struct {
	dev *fakeDevice
}

func (s *fakeStream) Stop() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.dev.stops++
	s.dev.onChunk = nil
	return nil
}

func (d *fakeDevice) Open(ctx context.Context, onChunk func([]byte)) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.onChunk = onChunk
	return &fakeStream{dev: d}, nil
}

func (d *fakeDevice) Encode(chunks [][]byte) ([]byte, string, error) {
	return bytes.Join(chunks, nil), "audio/test", nil
}

func (d *fakeDevice) push(chunk []byte) {
	d.mu.Lock()
	cb := d.onChunk
	d.mu.Unlock()
	if cb != nil {
		cb(chunk)
	}
}

func (d *fakeDevice) stopCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

func TestCaptureStartStopProducesAudioArtifact(t *testing.T) {
	dev := &fakeDevice{}
	c := New(dev, zerolog.Nop())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	dev.push([]byte("ab"))
	dev.push(nil)
	dev.push([]byte("cd"))

	artifact, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if string(artifact.Data) != "abcd" {
		t.Fatalf("data = %q, want abcd", artifact.Data)
	}
	if artifact.Kind != domain.MediaKindAudio {
		t.Fatalf("kind = %q, want audio", artifact.Kind)
	}
	if artifact.Name != RecordingName {
		t.Fatalf("name = %q, want %q", artifact.Name, RecordingName)
	}
	if c.Active() {
		t.Fatal("capture still active after Stop")
	}
}

// TestCaptureReleasesStreamExactlyOnce checks the hardware is freed once.
func TestCaptureReleasesStreamExactlyOnce(t *testing.T) {
	for _, chunks := range []int{0, 1, 50} {
		dev := &fakeDevice{}
		c := New(dev, zerolog.Nop())
		if err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		for i := 0; i < chunks; i++ {
			dev.push([]byte{byte(i)})
		}

		if _, err := c.Stop(); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		if _, err := c.Stop(); !errors.Is(err, ErrNotCapturing) {
			t.Fatalf("second Stop() error = %v, want %v", err, ErrNotCapturing)
		}
		if err := c.Abort(); err != nil {
			t.Fatalf("Abort() after stop error = %v", err)
		}
		if got := dev.stopCount(); got != 1 {
			t.Fatalf("chunks=%d stream stops = %d, want 1", chunks, got)
		}
	}
}

func TestCaptureOpenFailureIsPermissionDenied(t *testing.T) {
	dev := &fakeDevice{openErr: errors.New("NotAllowedError")}
	c := New(dev, zerolog.Nop())

	err := c.Start(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Start() error = %v, want %v", err, ErrPermissionDenied)
	}
	if c.Active() {
		t.Fatal("capture active after failed open")
	}
}

func TestCaptureRejectsDoubleStart(t *testing.T) {
	dev := &fakeDevice{}
	c := New(dev, zerolog.Nop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyCapturing) {
		t.Fatalf("second Start() error = %v, want %v", err, ErrAlreadyCapturing)
	}
	if err := c.Abort(); err != nil {
		t.Fatalf("Abort() error = %v", err)
	}
	if dev.stopCount() != 1 {
		t.Fatalf("stops = %d, want 1", dev.stopCount())
	}
}

func TestCaptureStartClearsPreviousChunks(t *testing.T) {
	dev := &fakeDevice{}
	c := New(dev, zerolog.Nop())

	_ = c.Start(context.Background())
	dev.push([]byte("old"))
	_ = c.Abort()

	_ = c.Start(context.Background())
	dev.push([]byte("new"))
	artifact, err := c.Stop()
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if string(artifact.Data) != "new" {
		t.Fatalf("data = %q, want new", artifact.Data)
	}
}

func TestEncodeWAVProducesDecodableFile(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0xff, 0x10}
	data, err := EncodeWAV([][]byte{pcm[:3], pcm[3:]}, 16000)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("unexpected header %q", data[:12])
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(buf.Data) != 2 || buf.Data[0] != 1 || buf.Data[1] != -1 {
		t.Fatalf("samples = %v, want [1 -1]", buf.Data)
	}
	if dec.SampleRate != 16000 {
		t.Fatalf("sample rate = %d", dec.SampleRate)
	}
}

func TestImportFileTagsByDeclaredType(t *testing.T) {
	root := t.TempDir()
	cases := []struct {
		name string
		want domain.MediaKind
	}{
		{"clip.mp4", domain.MediaKindVideo},
		{"talk.mp3", domain.MediaKindAudio},
		{"note.wav", domain.MediaKindAudio},
	}
	for _, tc := range cases {
		path := filepath.Join(root, tc.name)
		if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		artifact, err := ImportFile(path)
		if err != nil {
			t.Fatalf("ImportFile(%s) error = %v", tc.name, err)
		}
		if artifact.Kind != tc.want {
			t.Fatalf("%s kind = %q (type %q), want %q", tc.name, artifact.Kind, artifact.ContentType, tc.want)
		}
		if artifact.Name != tc.name {
			t.Fatalf("name = %q, want %q", artifact.Name, tc.name)
		}
		if string(artifact.Data) != "payload" {
			t.Fatalf("data = %q", artifact.Data)
		}
	}
}

func TestImportFileSniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture")
	data, err := EncodeWAV([][]byte{{0, 0, 1, 0}}, 8000)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	artifact, err := ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if artifact.Kind != domain.MediaKindAudio {
		t.Fatalf("kind = %q, want audio", artifact.Kind)
	}
	if artifact.ContentType == "application/octet-stream" {
		t.Fatalf("content type not sniffed: %q", artifact.ContentType)
	}
}

func TestImportFileEmptyPathIsNoFileSelected(t *testing.T) {
	if _, err := ImportFile("  "); !errors.Is(err, ErrNoFileSelected) {
		t.Fatalf("ImportFile() error = %v, want %v", err, ErrNoFileSelected)
	}
}
