// Package timer drives the elapsed-time display shown while recording.
package timer

import (
	"fmt"
	"sync"
	"time"
)

// Interval is the display cadence.
const Interval = time.Second

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker returns a ticker backed by time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Timer counts whole seconds since Start and reports each increment.
type Timer struct {
	newTicker func(time.Duration) Ticker
	onTick    func(elapsed int, display string)

	mu      sync.Mutex
	elapsed int
	gen     uint64
	stop    chan struct{}
	done    chan struct{}
}

// New creates a timer invoking onTick once per second while running.
func New(onTick func(elapsed int, display string)) *Timer {
	return NewWithTicker(NewRealTicker, onTick)
}

// NewWithTicker creates a timer with an injectable ticker source.
func NewWithTicker(newTicker func(time.Duration) Ticker, onTick func(elapsed int, display string)) *Timer {
	return &Timer{newTicker: newTicker, onTick: onTick}
}

// Start resets elapsed time to zero and begins ticking. A running timer is
// stopped first.
func (t *Timer) Start() {
	t.Stop()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.elapsed = 0
	t.gen++
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(t.newTicker(Interval), t.gen, t.stop, t.done)
}

// Stop halts the cadence. No tick callback runs after Stop returns.
func (t *Timer) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running reports whether the cadence is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Elapsed returns seconds counted since the last Start.
func (t *Timer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Display returns the elapsed time formatted as MM:SS.
func (t *Timer) Display() string {
	return Format(t.Elapsed())
}

func (t *Timer) loop(ticker Ticker, gen uint64, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			t.mu.Lock()
			if t.gen != gen {
				t.mu.Unlock()
				return
			}
			t.elapsed++
			elapsed := t.elapsed
			t.mu.Unlock()

			// A stop that raced with this tick wins.
			select {
			case <-stop:
				return
			default:
			}
			if t.onTick != nil {
				t.onTick(elapsed, Format(elapsed))
			}
		}
	}
}

// Format renders seconds as zero-padded MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
