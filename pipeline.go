package trafficwatch

import (
	"fmt"
	"time"

	"github.com/trafficwatch/go-trafficwatch/geom"
	"github.com/trafficwatch/go-trafficwatch/speed"
	"github.com/trafficwatch/go-trafficwatch/suppress"
	"github.com/trafficwatch/go-trafficwatch/track"
	"github.com/trafficwatch/go-trafficwatch/zone"
)

// Config defines the pipeline settings
type Config struct {
	// Suppress holds the detection de-duplication settings
	Suppress suppress.Config
	// Zones holds the count and alert zone settings
	Zones zone.Config
	// PixelsPerMeter is the scene calibration ratio used for speed
	// estimation
	PixelsPerMeter float64
	// HistorySize is the number of trail points kept per track, values
	// below 1 fall back to track.DefaultSize
	HistorySize int
	// StaleAfter is the horizon after which unseen track state is
	// evicted.  Zero disables eviction
	StaleAfter time.Duration
}

// FrameResult aggregates everything the pipeline derived from one frame
type FrameResult struct {
	// Detections are the kept detections after suppression
	Detections []Detection
	// Entered and Exited are the count zone transitions on this frame
	Entered int
	Exited  int
	// EnteredTotal and ExitedTotal are the monotonic counter values
	EnteredTotal int
	ExitedTotal  int
	// CurrentCount is EnteredTotal minus ExitedTotal.  It can be
	// transiently off when the upstream tracker reassigns an id
	CurrentCount int
	// Dwelling lists the track ids currently holding the alert overlay
	Dwelling []int64
	// Alerts are the alert events raised on this frame
	Alerts []zone.AlertEvent
	// FleetAverage is the mean smoothed speed across tracks in km/h
	FleetAverage float64
	// VehicleCount is the cumulative number of distinct ids observed
	VehicleCount int
}

// Pipeline runs the per-frame processing chain: suppression, track
// history, zone counting and speed estimation.  Frames must be submitted
// sequentially from a single goroutine, each frame is fully processed
// before the next is admitted
type Pipeline struct {
	filter    *suppress.Filter
	history   *track.History
	zones     *zone.Engine
	speeds    *speed.Analyzer
	staleFor  time.Duration
	lastEvict time.Time
}

// NewPipeline returns a pipeline using the given settings.  Configuration
// errors such as malformed polygons or a non-positive calibration ratio
// are rejected here, per-frame processing never fails
func NewPipeline(cfg Config) (*Pipeline, error) {

	zones, err := zone.NewEngine(cfg.Zones)

	if err != nil {
		return nil, fmt.Errorf("zone engine: %w", err)
	}

	speeds, err := speed.NewAnalyzer(cfg.PixelsPerMeter)

	if err != nil {
		return nil, fmt.Errorf("speed analyzer: %w", err)
	}

	return &Pipeline{
		filter:   suppress.NewFilter(cfg.Suppress),
		history:  track.NewHistory(cfg.HistorySize),
		zones:    zones,
		speeds:   speeds,
		staleFor: cfg.StaleAfter,
	}, nil
}

// Process runs one frame of detections through the pipeline and returns
// the aggregated result.  An empty detection list is valid and produces
// an empty result with unchanged counters
func (p *Pipeline) Process(dets []Detection, now time.Time) FrameResult {

	kept := p.suppressDets(dets)

	res := FrameResult{
		Detections: kept,
	}

	for _, d := range kept {

		center := d.Box.Center()

		p.history.Append(d.TrackID, center, now)

		zres := p.zones.Update(d.TrackID, d.Class, center, now)

		if zres.Entered {
			res.Entered++
		}

		if zres.Exited {
			res.Exited++
		}

		if zres.Dwelling {
			res.Dwelling = append(res.Dwelling, d.TrackID)
		}

		if zres.Alert != nil {
			res.Alerts = append(res.Alerts, *zres.Alert)
		}

		p.speeds.Update(d.TrackID, center, now)
	}

	entered, exited := p.zones.Counts()

	res.EnteredTotal = entered
	res.ExitedTotal = exited
	res.CurrentCount = entered - exited
	res.FleetAverage = p.speeds.FleetAverage()
	res.VehicleCount = p.speeds.VehicleCount()

	p.maybeEvict(now)

	return res
}

// suppressDets runs the suppression filter over the raw detections
func (p *Pipeline) suppressDets(dets []Detection) []Detection {

	if len(dets) == 0 {
		return nil
	}

	boxes := make([]geom.Box, len(dets))
	scores := make([]float32, len(dets))

	for i, d := range dets {
		boxes[i] = d.Box
		scores[i] = d.Score
	}

	keep := p.filter.Apply(boxes, scores)

	out := make([]Detection, 0, len(keep))

	for _, i := range keep {
		out = append(out, dets[i])
	}

	return out
}

// maybeEvict drops stale track and speed state once per horizon interval
func (p *Pipeline) maybeEvict(now time.Time) {

	if p.staleFor <= 0 {
		return
	}

	if p.lastEvict.IsZero() {
		p.lastEvict = now
		return
	}

	if now.Sub(p.lastEvict) < p.staleFor {
		return
	}

	p.history.EvictStale(p.staleFor, now)
	p.speeds.EvictStale(p.staleFor, now)
	p.lastEvict = now
}

// History exposes the track history store, eg for trail rendering
func (p *Pipeline) History() *track.History {
	return p.history
}

// Zones exposes the zone engine
func (p *Pipeline) Zones() *zone.Engine {
	return p.zones
}

// Speeds exposes the speed analyzer
func (p *Pipeline) Speeds() *speed.Analyzer {
	return p.speeds
}
