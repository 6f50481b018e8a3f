package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"audio-transcription/internal/capture"
	"audio-transcription/internal/domain"
	"audio-transcription/internal/events"
	"audio-transcription/internal/export"
	"audio-transcription/internal/timer"
	"audio-transcription/internal/transcription"
)

// User-facing messages.
const (
	MsgMicrophoneUnavailable = "Cannot access the microphone"
	MsgRecordingFailed       = "Recording failed"
	MsgImportFailed          = "Cannot read the selected file"
	MsgTranscribing          = "Transcription in progress..."
	MsgTranscriptionFailed   = "Transcription failed"
	MsgCopied                = "Copied!"
	MsgCopyFailed            = "Copy failed"
	MsgExportFailed          = "Export failed"
)

// Recorder is the capture adapter as seen by the controller.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (domain.Artifact, error)
	Abort() error
}

// Stopwatch is the elapsed-time ticker.
type Stopwatch interface {
	Start()
	Stop()
}

// Clipboard is the platform copy boundary.
type Clipboard interface {
	WriteText(text string) error
}

// Deps wires the controller to its adapters. Zero optional fields get
// production defaults.
type Deps struct {
	Recorder    Recorder
	Transcriber transcription.Transcriber
	Saver       export.Saver
	Clipboard   Clipboard
	Bus         *events.Bus
	Log         zerolog.Logger

	NewStopwatch func(onTick func(elapsed int, display string)) Stopwatch
	ImportFile   func(path string) (domain.Artifact, error)
	NewID        func() string
	Now          func() time.Time
}

// pending is the submission currently awaiting a reply.
type pending struct {
	attempt uint64
	cancel  context.CancelFunc
}

// Controller owns the workflow state and is safe for concurrent use.
type Controller struct {
	recorder    Recorder
	transcriber transcription.Transcriber
	saver       export.Saver
	clipboard   Clipboard
	bus         *events.Bus
	log         zerolog.Logger
	stopwatch   Stopwatch
	importFile  func(path string) (domain.Artifact, error)
	newID       func() string
	now         func() time.Time

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	// op serializes user operations; mu guards state and is never held
	// while calling into the stopwatch or the recorder.
	op      sync.Mutex
	mu      sync.Mutex
	state   State
	pending *pending
}

// NewController builds a controller in the idle state.
func NewController(deps Deps) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		recorder:    deps.Recorder,
		transcriber: deps.Transcriber,
		saver:       deps.Saver,
		clipboard:   deps.Clipboard,
		bus:         deps.Bus,
		log:         deps.Log,
		importFile:  deps.ImportFile,
		newID:       deps.NewID,
		now:         deps.Now,
		baseCtx:     ctx,
		baseCancel:  cancel,
		state:       Initial(),
	}
	if c.bus == nil {
		c.bus = events.NewBus(0)
	}
	if c.importFile == nil {
		c.importFile = capture.ImportFile
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if c.now == nil {
		c.now = time.Now
	}
	newStopwatch := deps.NewStopwatch
	if newStopwatch == nil {
		newStopwatch = func(onTick func(int, string)) Stopwatch { return timer.New(onTick) }
	}
	c.stopwatch = newStopwatch(c.onTick)
	return c
}

// Bus returns the event bus the controller publishes to.
func (c *Controller) Bus() *events.Bus {
	return c.bus
}

// SetTranscriber swaps the transcription backend for later submissions.
// An in-flight transcription keeps the backend it started with.
func (c *Controller) SetTranscriber(tr transcription.Transcriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcriber = tr
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns the projection of the current state.
func (c *Controller) View() View {
	return Project(c.State())
}

// StartRecording clears the text, opens the microphone and starts the
// timer. A pending transcription is cancelled.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	sessionID := c.newID()
	if err := c.apply(StartRecording{SessionID: sessionID, At: c.now()}, true); err != nil {
		return err
	}

	if err := c.recorder.Start(ctx); err != nil {
		c.log.Warn().Err(err).Str("session", sessionID).Msg("start recording")
		_ = c.apply(RecordingFailed{}, false)
		c.bus.Notify(MsgMicrophoneUnavailable, domain.SeverityDanger)
		c.publishState()
		return err
	}

	c.stopwatch.Start()
	c.log.Info().Str("session", sessionID).Msg("recording started")
	return nil
}

// StopRecording stops the timer, releases the microphone and submits the
// recording for transcription.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()

	if phase := c.State().Phase; phase != domain.PhaseRecording {
		return invalid(phase, "stop recording")
	}

	c.stopwatch.Stop()
	artifact, err := c.recorder.Stop()
	if err != nil {
		c.log.Error().Err(err).Msg("stop recording")
		_ = c.apply(RecordingFailed{}, false)
		c.bus.Notify(MsgRecordingFailed, domain.SeverityDanger)
		c.publishState()
		return err
	}

	if err := c.apply(StopRecording{Artifact: artifact}, false); err != nil {
		return err
	}
	c.log.Info().Int("bytes", artifact.Size()).Msg("recording stopped")
	c.submit(artifact)
	return nil
}

// ImportFile submits a picked file. An empty path means the picker was
// dismissed and nothing happens.
func (c *Controller) ImportFile(ctx context.Context, path string) error {
	c.op.Lock()
	defer c.op.Unlock()

	if phase := c.State().Phase; phase == domain.PhaseRecording {
		return invalid(phase, "import file")
	}

	artifact, err := c.importFile(path)
	if errors.Is(err, capture.ErrNoFileSelected) {
		return nil
	}
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("import file")
		c.bus.Notify(MsgImportFailed, domain.SeverityDanger)
		return err
	}

	if err := c.apply(Import{Artifact: artifact}, true); err != nil {
		return err
	}
	c.log.Info().Str("file", artifact.Name).Str("kind", string(artifact.Kind)).Msg("file imported")
	c.submit(artifact)
	return nil
}

// Reset clears the transcribed text and abandons a pending transcription.
func (c *Controller) Reset() {
	c.op.Lock()
	defer c.op.Unlock()
	_ = c.apply(Reset{}, true)
}

// CopyText copies the current text to the clipboard.
func (c *Controller) CopyText() error {
	text := c.State().Text
	if err := c.clipboard.WriteText(text); err != nil {
		c.log.Error().Err(err).Msg("copy to clipboard")
		c.bus.Notify(MsgCopyFailed, domain.SeverityDanger)
		return err
	}
	c.bus.Notify(MsgCopied, domain.SeveritySuccess)
	return nil
}

// Export renders the current text and hands it to the saver. It returns
// the saved path, or "" when the user cancelled the save.
func (c *Controller) Export(ctx context.Context, format export.Format) (string, error) {
	doc, err := export.Render(format, c.State().Text)
	if err != nil {
		c.bus.Notify(MsgExportFailed, domain.SeverityDanger)
		return "", err
	}

	path, err := c.saver.Save(ctx, doc)
	if err != nil {
		c.log.Error().Err(err).Str("format", string(format)).Msg("save export")
		c.bus.Notify(MsgExportFailed, domain.SeverityDanger)
		return "", err
	}
	if path == "" {
		return "", nil
	}

	c.log.Info().Str("path", path).Msg("export saved")
	c.bus.Notify(fmt.Sprintf("%s download complete", format.Label()), domain.SeverityInfo)
	return path, nil
}

// Wait blocks until no transcription is in flight.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels pending work, stops the timer and releases the microphone.
func (c *Controller) Close() error {
	c.op.Lock()
	defer c.op.Unlock()

	c.baseCancel()
	c.stopwatch.Stop()
	err := c.recorder.Abort()
	c.wg.Wait()
	return err
}

// apply runs one transition under the state lock, optionally cancelling
// the pending submission, and publishes the new phase.
func (c *Controller) apply(ev Event, cancelPending bool) error {
	c.mu.Lock()
	next, err := Apply(c.state, ev)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	var stale *pending
	if cancelPending {
		stale, c.pending = c.pending, nil
	}
	c.mu.Unlock()

	if stale != nil {
		c.log.Debug().Uint64("attempt", stale.attempt).Msg("cancelling pending transcription")
		stale.cancel()
		// A replacing submission keeps the indicator up and shows its own attempt.
		if next.Phase != domain.PhaseTranscribing {
			c.bus.Publish(events.Event{Type: events.TypeProgressDismissed, Attempt: stale.attempt})
		}
	}
	c.publishState()
	return nil
}

// submit starts the transcription of the attempt just applied.
func (c *Controller) submit(artifact domain.Artifact) {
	ctx, cancel := context.WithCancel(c.baseCtx)

	c.mu.Lock()
	attempt := c.state.Attempt
	tr := c.transcriber
	c.pending = &pending{attempt: attempt, cancel: cancel}
	c.mu.Unlock()

	c.bus.Publish(events.Event{Type: events.TypeProgressShown, Message: MsgTranscribing, Attempt: attempt})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		text, err := tr.Transcribe(ctx, artifact)
		c.finish(attempt, text, err)
	}()
}

// finish applies a transcription outcome. Only the attempt still in flight
// dismisses the progress indicator; abandoned attempts were dismissed when
// they were abandoned.
func (c *Controller) finish(attempt uint64, text string, err error) {
	var ev Event = Succeeded{Attempt: attempt, Text: text}
	if err != nil {
		ev = Failed{Attempt: attempt}
	}

	c.mu.Lock()
	next, applyErr := Apply(c.state, ev)
	if applyErr == nil {
		c.state = next
	}
	if c.pending != nil && c.pending.attempt == attempt {
		c.pending = nil
	}
	c.mu.Unlock()

	log := c.log.With().Uint64("attempt", attempt).Logger()
	if applyErr != nil {
		log.Debug().Err(err).Msg("discarding stale transcription result")
		return
	}

	c.bus.Publish(events.Event{Type: events.TypeProgressDismissed, Attempt: attempt})
	switch {
	case err == nil:
		log.Info().Int("chars", len(text)).Msg("transcription completed")
	case errors.Is(err, context.Canceled):
		log.Debug().Msg("transcription cancelled")
	default:
		log.Error().Err(err).Msg("transcription failed")
		c.bus.Notify(MsgTranscriptionFailed, domain.SeverityDanger)
	}
	c.publishState()
}

// onTick records one elapsed second from the stopwatch.
func (c *Controller) onTick(elapsed int, display string) {
	c.mu.Lock()
	next, err := Apply(c.state, Tick{Elapsed: elapsed})
	if err == nil {
		c.state = next
	}
	c.mu.Unlock()

	if err == nil {
		c.bus.Publish(events.Event{Type: events.TypeTick, Phase: domain.PhaseRecording, Display: display})
	}
}

func (c *Controller) publishState() {
	c.bus.Publish(events.Event{Type: events.TypeState, Phase: c.State().Phase})
}
