package workflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"audio-transcription/internal/capture"
	"audio-transcription/internal/domain"
	"audio-transcription/internal/events"
	"audio-transcription/internal/export"
	"audio-transcription/internal/transcription"
)

// fakeRecorder counts hardware acquisitions and releases.
type fakeRecorder struct {
	startErr error

	mu     sync.Mutex
	active bool
	starts int
	stops  int
}

func (r *fakeRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.starts++
	r.active = true
	return nil
}

func (r *fakeRecorder) Stop() (domain.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return domain.Artifact{}, capture.ErrNotCapturing
	}
	r.active = false
	r.stops++
	return domain.Artifact{Name: capture.RecordingName, Kind: domain.MediaKindAudio, Data: []byte("pcm")}, nil
}

func (r *fakeRecorder) Abort() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		r.active = false
		r.stops++
	}
	return nil
}

// fakeStopwatch lets tests fire ticks by hand.
type fakeStopwatch struct {
	onTick  func(int, string)
	mu      sync.Mutex
	running bool
	starts  int
}

func (s *fakeStopwatch) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.starts++
}

func (s *fakeStopwatch) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *fakeStopwatch) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// transcriberFunc adapts a function to transcription.Transcriber.
type transcriberFunc func(ctx context.Context, artifact domain.Artifact) (string, error)

func (f transcriberFunc) Transcribe(ctx context.Context, artifact domain.Artifact) (string, error) {
	return f(ctx, artifact)
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteText(text string) error {
	c.text = text
	return c.err
}

type memorySaver struct {
	docs []export.Document
}

func (s *memorySaver) Save(ctx context.Context, doc export.Document) (string, error) {
	s.docs = append(s.docs, doc)
	return "/saved/" + doc.Name, nil
}

type harness struct {
	ctrl      *Controller
	recorder  *fakeRecorder
	stopwatch *fakeStopwatch
	clipboard *fakeClipboard
	saver     *memorySaver
	bus       *events.Bus
}

func newHarness(t *testing.T, tr transcription.Transcriber) *harness {
	t.Helper()
	h := &harness{
		recorder:  &fakeRecorder{},
		stopwatch: &fakeStopwatch{},
		clipboard: &fakeClipboard{},
		saver:     &memorySaver{},
		bus:       events.NewBus(100),
	}
	h.ctrl = NewController(Deps{
		Recorder:    h.recorder,
		Transcriber: tr,
		Saver:       h.saver,
		Clipboard:   h.clipboard,
		Bus:         h.bus,
		Log:         zerolog.Nop(),
		NewStopwatch: func(onTick func(int, string)) Stopwatch {
			h.stopwatch.onTick = onTick
			return h.stopwatch
		},
		ImportFile: func(path string) (domain.Artifact, error) {
			if path == "" {
				return domain.Artifact{}, capture.ErrNoFileSelected
			}
			return domain.Artifact{Name: path, Kind: domain.KindFromContentType("video/mp4"), Data: []byte(path)}, nil
		},
		NewID: func() string { return "session-1" },
	})
	t.Cleanup(func() { _ = h.ctrl.Close() })
	return h
}

func (h *harness) notifications() []domain.Notification {
	var out []domain.Notification
	for _, e := range h.bus.Since(0) {
		if e.Type == events.TypeNotification && e.Notification != nil {
			out = append(out, *e.Notification)
		}
	}
	return out
}

func (h *harness) count(typ events.Type) int {
	n := 0
	for _, e := range h.bus.Since(0) {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// progress lists the progress indicator events in publish order.
func (h *harness) progress() []events.Event {
	var out []events.Event
	for _, e := range h.bus.Since(0) {
		if e.Type == events.TypeProgressShown || e.Type == events.TypeProgressDismissed {
			out = append(out, e)
		}
	}
	return out
}

func staticText(text string) transcription.Transcriber {
	return transcriberFunc(func(ctx context.Context, artifact domain.Artifact) (string, error) {
		return text, nil
	})
}

func TestControllerRecordAndTranscribe(t *testing.T) {
	h := newHarness(t, staticText("hello"))
	ctx := context.Background()

	if err := h.ctrl.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if !h.stopwatch.isRunning() {
		t.Fatal("timer not started")
	}
	h.stopwatch.onTick(1, "00:01")
	h.stopwatch.onTick(2, "00:02")
	if got := h.ctrl.View().RecordingTime; got != "00:02" {
		t.Fatalf("recording time = %q, want 00:02", got)
	}

	if err := h.ctrl.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording() error = %v", err)
	}
	if h.stopwatch.isRunning() {
		t.Fatal("timer still running after stop")
	}
	h.ctrl.Wait()

	state := h.ctrl.State()
	if state.Phase != domain.PhaseIdle || state.Text != "hello" {
		t.Fatalf("state = %+v", state)
	}
	if h.recorder.stops != 1 {
		t.Fatalf("stream releases = %d, want 1", h.recorder.stops)
	}
	if h.count(events.TypeProgressShown) != 1 || h.count(events.TypeProgressDismissed) != 1 {
		t.Fatal("progress indicator not shown and dismissed exactly once")
	}
}

// TestControllerStartResetsText checks text is cleared before new text arrives.
func TestControllerStartResetsText(t *testing.T) {
	h := newHarness(t, staticText("first"))
	ctx := context.Background()

	if err := h.ctrl.ImportFile(ctx, "a.mp4"); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	h.ctrl.Wait()
	if h.ctrl.State().Text != "first" {
		t.Fatalf("text = %q, want first", h.ctrl.State().Text)
	}

	if err := h.ctrl.StartRecording(ctx); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if got := h.ctrl.View().Text; got != "" {
		t.Fatalf("text after start = %q, want empty", got)
	}
}

func TestControllerPermissionDenied(t *testing.T) {
	h := newHarness(t, staticText("unused"))
	h.recorder.startErr = capture.ErrPermissionDenied

	err := h.ctrl.StartRecording(context.Background())
	if !errors.Is(err, capture.ErrPermissionDenied) {
		t.Fatalf("error = %v, want %v", err, capture.ErrPermissionDenied)
	}
	if h.ctrl.State().Phase != domain.PhaseIdle {
		t.Fatalf("phase = %s, want idle", h.ctrl.State().Phase)
	}
	if h.stopwatch.starts != 0 {
		t.Fatal("timer started despite denied microphone")
	}
	notes := h.notifications()
	if len(notes) != 1 || notes[0].Message != MsgMicrophoneUnavailable || notes[0].Severity != domain.SeverityDanger {
		t.Fatalf("notifications = %+v", notes)
	}
}

// TestControllerTranscriptionFailureOverHTTP drives a real client against a 500.
func TestControllerTranscriptionFailureOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	h := newHarness(t, transcription.NewHTTPClient(srv.URL, 0, zerolog.Nop()))
	if err := h.ctrl.ImportFile(context.Background(), "talk.mp3"); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	h.ctrl.Wait()

	state := h.ctrl.State()
	if state.Phase != domain.PhaseIdle || state.Text != "" {
		t.Fatalf("state = %+v", state)
	}
	notes := h.notifications()
	if len(notes) != 1 || notes[0].Message != MsgTranscriptionFailed {
		t.Fatalf("notifications = %+v", notes)
	}
	if h.count(events.TypeProgressDismissed) != 1 {
		t.Fatal("progress indicator leaked on failure")
	}
}

func TestControllerTranscriptionSuccessOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"text":"hello"}`)
	}))
	t.Cleanup(srv.Close)

	h := newHarness(t, transcription.NewHTTPClient(srv.URL, 0, zerolog.Nop()))
	if err := h.ctrl.ImportFile(context.Background(), "talk.mp3"); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	h.ctrl.Wait()

	if got := h.ctrl.View().Text; got != "hello" {
		t.Fatalf("text = %q, want hello", got)
	}
}

func TestControllerNoFileSelectedIsNoOp(t *testing.T) {
	h := newHarness(t, staticText("x"))
	before := h.ctrl.State()

	if err := h.ctrl.ImportFile(context.Background(), ""); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if h.ctrl.State() != before {
		t.Fatalf("state changed: %+v", h.ctrl.State())
	}
	if len(h.bus.Since(0)) != 0 {
		t.Fatalf("unexpected events: %+v", h.bus.Since(0))
	}
}

// TestControllerNewImportCancelsPending checks the latest submission wins
// and the indicator stays up until it finishes.
func TestControllerNewImportCancelsPending(t *testing.T) {
	firstDone := make(chan struct{})
	releaseSecond := make(chan struct{})
	tr := transcriberFunc(func(ctx context.Context, artifact domain.Artifact) (string, error) {
		if artifact.Name == "first.mp3" {
			defer close(firstDone)
			<-ctx.Done()
			return "stale", nil
		}
		<-releaseSecond
		return "fresh", nil
	})
	h := newHarness(t, tr)
	ctx := context.Background()

	if err := h.ctrl.ImportFile(ctx, "first.mp3"); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if err := h.ctrl.ImportFile(ctx, "second.mp3"); err != nil {
		t.Fatalf("second import: %v", err)
	}
	<-firstDone

	// Give the discarded reply time to be processed before looking.
	for i := 0; i < 20; i++ {
		for _, e := range h.progress() {
			if e.Type == events.TypeProgressDismissed {
				t.Fatalf("indicator dismissed while attempt 2 in flight: %+v", h.progress())
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	if phase := h.ctrl.State().Phase; phase != domain.PhaseTranscribing {
		t.Fatalf("phase = %s, want transcribing", phase)
	}

	close(releaseSecond)
	h.ctrl.Wait()

	state := h.ctrl.State()
	if state.Text != "fresh" || state.Phase != domain.PhaseIdle {
		t.Fatalf("state = %+v, want fresh/idle", state)
	}
	if state.Artifact == nil || state.Artifact.Name != "second.mp3" {
		t.Fatalf("artifact = %+v", state.Artifact)
	}
	if len(h.notifications()) != 0 {
		t.Fatalf("unexpected notifications: %+v", h.notifications())
	}

	got := h.progress()
	want := []struct {
		typ     events.Type
		attempt uint64
	}{
		{events.TypeProgressShown, 1},
		{events.TypeProgressShown, 2},
		{events.TypeProgressDismissed, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("progress events = %+v, want %d", got, len(want))
	}
	for i, w := range want {
		if got[i].Type != w.typ || got[i].Attempt != w.attempt {
			t.Fatalf("progress[%d] = %s(%d), want %s(%d)", i, got[i].Type, got[i].Attempt, w.typ, w.attempt)
		}
	}
}

// TestControllerResetDismissesPending checks an abandoned upload closes the
// indicator once, and its late reply changes nothing.
func TestControllerResetDismissesPending(t *testing.T) {
	done := make(chan struct{})
	tr := transcriberFunc(func(ctx context.Context, artifact domain.Artifact) (string, error) {
		defer close(done)
		<-ctx.Done()
		return "late", nil
	})
	h := newHarness(t, tr)

	if err := h.ctrl.ImportFile(context.Background(), "a.mp3"); err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	h.ctrl.Reset()
	<-done
	h.ctrl.Wait()

	if state := h.ctrl.State(); state.Phase != domain.PhaseIdle || state.Text != "" {
		t.Fatalf("state = %+v", state)
	}
	if shown, dismissed := h.count(events.TypeProgressShown), h.count(events.TypeProgressDismissed); shown != 1 || dismissed != 1 {
		t.Fatalf("progress shown %d times, dismissed %d, want 1/1", shown, dismissed)
	}
}

func TestControllerRejectsImportWhileRecording(t *testing.T) {
	h := newHarness(t, staticText("x"))
	if err := h.ctrl.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if err := h.ctrl.ImportFile(context.Background(), "a.mp4"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidTransition)
	}
	if err := h.ctrl.StartRecording(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidTransition)
	}
	if h.recorder.starts != 1 {
		t.Fatalf("recorder starts = %d, want 1", h.recorder.starts)
	}
}

func TestControllerCloseReleasesMicrophone(t *testing.T) {
	h := newHarness(t, staticText("x"))
	if err := h.ctrl.StartRecording(context.Background()); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if err := h.ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if h.stopwatch.isRunning() {
		t.Fatal("timer leaked after close")
	}
	if h.recorder.stops != 1 {
		t.Fatalf("stream releases = %d, want 1", h.recorder.stops)
	}
}

func TestControllerCopyText(t *testing.T) {
	h := newHarness(t, staticText("copy me"))
	_ = h.ctrl.ImportFile(context.Background(), "a.mp3")
	h.ctrl.Wait()

	if err := h.ctrl.CopyText(); err != nil {
		t.Fatalf("CopyText() error = %v", err)
	}
	if h.clipboard.text != "copy me" {
		t.Fatalf("clipboard = %q", h.clipboard.text)
	}
	notes := h.notifications()
	if len(notes) != 1 || notes[0].Message != MsgCopied || notes[0].Severity != domain.SeveritySuccess {
		t.Fatalf("notifications = %+v", notes)
	}
}

// TestControllerExportKeepsText checks every export leaves the text intact.
func TestControllerExportKeepsText(t *testing.T) {
	h := newHarness(t, staticText("abc"))
	_ = h.ctrl.ImportFile(context.Background(), "a.mp3")
	h.ctrl.Wait()

	for _, format := range export.Formats {
		path, err := h.ctrl.Export(context.Background(), format)
		if err != nil {
			t.Fatalf("Export(%s) error = %v", format, err)
		}
		if path != "/saved/transcription."+string(format) {
			t.Fatalf("path = %q", path)
		}
		if h.ctrl.State().Text != "abc" {
			t.Fatalf("text mutated by %s export: %q", format, h.ctrl.State().Text)
		}
	}

	txt := h.saver.docs[len(h.saver.docs)-1]
	if txt.Name != "transcription.txt" || string(txt.Data) != "abc" {
		t.Fatalf("txt export = %q %q", txt.Name, txt.Data)
	}
	if len(h.notifications()) != len(export.Formats) {
		t.Fatalf("notifications = %+v", h.notifications())
	}
}
