package alert

import (
	"sync"

	"github.com/trafficwatch/go-trafficwatch/zone"
)

// PlayFunc performs the alert side effect for one event, eg playing a
// voice notification.  It may take seconds to complete
type PlayFunc func(zone.AlertEvent)

// Dispatcher decouples alert side effects from frame processing.  Each
// event is handed to the play func on its own goroutine so the pipeline
// is never blocked, while a single-slot lock serializes overlapping
// playbacks so they cannot interleave
type Dispatcher struct {
	play PlayFunc
	// playing is held for the duration of one playback
	playing sync.Mutex
	wg      sync.WaitGroup
}

// NewDispatcher returns a dispatcher invoking the given play func for
// every event
func NewDispatcher(play PlayFunc) *Dispatcher {
	return &Dispatcher{
		play: play,
	}
}

// Dispatch schedules the side effect for one alert event and returns
// immediately
func (d *Dispatcher) Dispatch(ev zone.AlertEvent) {

	if d.play == nil {
		return
	}

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		d.playing.Lock()
		defer d.playing.Unlock()

		d.play(ev)
	}()
}

// Wait blocks until all dispatched events have finished playing
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
