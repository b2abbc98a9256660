package speed

import (
	"fmt"
	"time"

	"github.com/trafficwatch/go-trafficwatch/geom"
	"gonum.org/v1/gonum/stat"
)

const (
	// WindowSize is the number of recent valid speed samples kept per
	// track for smoothing
	WindowSize = 5
	// MaxSpeedKMH is the upper bound of a plausible speed sample,
	// anything at or above is treated as tracker noise and discarded
	MaxSpeedKMH = 200.0
	// minInterval is the smallest time delta between two sightings that
	// still yields a usable speed sample
	minInterval = time.Millisecond
)

// state holds the speed estimation data of a single track
type state struct {
	prevPos  geom.Point
	prevTime time.Time
	// samples is a circular buffer of the most recent valid speeds in
	// km/h.  Zero slots have never been written
	samples [WindowSize]float64
	cursor  int
	// smoothed is the mean of the valid sample slots
	smoothed float64
	lastSeen time.Time
}

// Analyzer estimates a smoothed speed per track id from positional deltas
// between frames, plus a fleet-wide average.  It is driven once per frame
// per track from a single goroutine and owns all speed state
type Analyzer struct {
	// pixelsPerMeter is the scene calibration ratio, supplied externally
	pixelsPerMeter float64
	tracks         map[int64]*state
	// allSeen records every track id ever observed for the cumulative
	// vehicle count
	allSeen map[int64]bool
}

// NewAnalyzer returns a speed analyzer calibrated with the given pixels
// per meter ratio.  The ratio must be positive
func NewAnalyzer(pixelsPerMeter float64) (*Analyzer, error) {

	if pixelsPerMeter <= 0 {
		return nil, fmt.Errorf("pixels per meter must be positive, got %f", pixelsPerMeter)
	}

	return &Analyzer{
		pixelsPerMeter: pixelsPerMeter,
		tracks:         make(map[int64]*state),
		allSeen:        make(map[int64]bool),
	}, nil
}

// Update records the current position and timestamp of a track and
// refreshes its smoothed speed.  The first sighting of an id only stores
// the baseline.  Samples with a time delta of 1ms or less are treated as
// duplicates and skipped without advancing the baseline, so the next
// sighting retries against the same reference.  Instantaneous speeds
// outside (0,200) km/h are discarded as noise but still advance the
// baseline
func (a *Analyzer) Update(id int64, pt geom.Point, now time.Time) {

	a.allSeen[id] = true

	s, exists := a.tracks[id]

	if !exists {
		a.tracks[id] = &state{
			prevPos:  pt,
			prevTime: now,
			lastSeen: now,
		}
		return
	}

	s.lastSeen = now

	dt := now.Sub(s.prevTime)

	if dt <= minInterval {
		return
	}

	distMeters := float64(pt.Dist(s.prevPos)) / a.pixelsPerMeter
	kmh := distMeters / dt.Seconds() * 3.6

	if kmh > 0 && kmh < MaxSpeedKMH {

		s.samples[s.cursor] = kmh
		s.cursor = (s.cursor + 1) % WindowSize

		s.smoothed = meanValid(s.samples[:])
	}

	s.prevPos = pt
	s.prevTime = now
}

// meanValid returns the mean of the non-zero samples, or 0 when none are
// valid
func meanValid(samples []float64) float64 {

	valid := make([]float64, 0, len(samples))

	for _, v := range samples {
		if v > 0 {
			valid = append(valid, v)
		}
	}

	if len(valid) == 0 {
		return 0
	}

	return stat.Mean(valid, nil)
}

// Speed returns the smoothed speed of the given track id in km/h, or 0
// when the id is unknown or has no valid samples yet
func (a *Analyzer) Speed(id int64) float64 {

	if s, exists := a.tracks[id]; exists {
		return s.smoothed
	}

	return 0
}

// FleetAverage returns the mean of all currently non-zero smoothed track
// speeds in km/h, or 0 when none are available
func (a *Analyzer) FleetAverage() float64 {

	valid := make([]float64, 0, len(a.tracks))

	for _, s := range a.tracks {
		if s.smoothed > 0 {
			valid = append(valid, s.smoothed)
		}
	}

	if len(valid) == 0 {
		return 0
	}

	return stat.Mean(valid, nil)
}

// VehicleCount returns the number of distinct track ids ever observed.
// It never decreases for the lifetime of the analyzer
func (a *Analyzer) VehicleCount() int {
	return len(a.allSeen)
}

// EvictStale drops the speed state of track ids not seen within the
// given horizon before now and returns the number removed.  The
// cumulative vehicle count is unaffected
func (a *Analyzer) EvictStale(olderThan time.Duration, now time.Time) int {

	removed := 0

	for id, s := range a.tracks {
		if now.Sub(s.lastSeen) > olderThan {
			delete(a.tracks, id)
			removed++
		}
	}

	return removed
}

// Reset clears all per-track state and the cumulative id set
func (a *Analyzer) Reset() {
	a.tracks = make(map[int64]*state)
	a.allSeen = make(map[int64]bool)
}
