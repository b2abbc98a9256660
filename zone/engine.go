package zone

import (
	"fmt"
	"time"

	"github.com/trafficwatch/go-trafficwatch/geom"
)

// DefaultDwellThreshold is how long an alert-eligible object must remain
// inside the alert zone before an alert event fires
const DefaultDwellThreshold = 2 * time.Second

// Config defines the zone engine settings
type Config struct {
	// Count is the polygon objects are counted into and out of
	Count Polygon
	// Alert is the restricted polygon guarded by the dwell-time detector
	Alert Polygon
	// AlertClasses are the object classes eligible to raise alerts
	AlertClasses []int
	// DwellThreshold is the minimum continuous time inside the alert
	// polygon before an alert fires.  Zero uses DefaultDwellThreshold
	DwellThreshold time.Duration
	// AlertPadding optionally inflates the alert polygon outwards by the
	// given number of pixels
	AlertPadding float64
}

// AlertEvent is emitted once per track id when it has dwelt inside the
// alert zone past the threshold
type AlertEvent struct {
	// TrackID of the intruding object
	TrackID int64
	// Class of the intruding object
	Class int
	// At is the frame timestamp the dwell threshold was crossed on
	At time.Time
	// FrameRef identifies the frame the alert was raised on, eg a
	// snapshot file name, set by the caller via SetFrameRef
	FrameRef string
}

// Result reports the zone transitions of a single track for one frame
type Result struct {
	// Entered is set when the track crossed into the count zone
	Entered bool
	// Exited is set when the track crossed out of the count zone
	Exited bool
	// Dwelling is set while the track remains inside the alert zone past
	// the dwell threshold, used for drawing the continuing overlay
	Dwelling bool
	// Alert carries the alert event raised this frame, nil otherwise.
	// At most one alert is ever raised per track id
	Alert *AlertEvent
}

// Engine drives two independent state machines per track id: entry/exit
// counting against the count polygon and a dwell-time intrusion detector
// for the alert polygon.  It is driven once per frame per track from a
// single goroutine and owns all zone membership state
type Engine struct {
	count        Polygon
	alert        Polygon
	alertClasses map[int]bool
	dwell        time.Duration

	// entered holds the ids currently counted inside the count zone
	entered map[int64]bool
	// entryTime records when each id entered the alert zone
	entryTime map[int64]time.Time
	// alerted holds the ids an alert has already fired for
	alerted map[int64]bool

	enteredCount int
	exitedCount  int

	frameRef string
}

// NewEngine returns a zone engine using the given settings.  Both
// polygons must have been constructed with NewPolygon
func NewEngine(cfg Config) (*Engine, error) {

	if len(cfg.Count.Points()) < 3 {
		return nil, fmt.Errorf("count zone: polygon needs at least 3 vertices")
	}

	if len(cfg.Alert.Points()) < 3 {
		return nil, fmt.Errorf("alert zone: polygon needs at least 3 vertices")
	}

	if cfg.DwellThreshold == 0 {
		cfg.DwellThreshold = DefaultDwellThreshold
	}

	if cfg.DwellThreshold < 0 {
		return nil, fmt.Errorf("dwell threshold must be positive, got %v", cfg.DwellThreshold)
	}

	alertPoly := cfg.Alert

	if cfg.AlertPadding > 0 {
		alertPoly = alertPoly.Inflate(cfg.AlertPadding)
	}

	classes := make(map[int]bool)

	for _, c := range cfg.AlertClasses {
		classes[c] = true
	}

	return &Engine{
		count:        cfg.Count,
		alert:        alertPoly,
		alertClasses: classes,
		dwell:        cfg.DwellThreshold,
		entered:      make(map[int64]bool),
		entryTime:    make(map[int64]time.Time),
		alerted:      make(map[int64]bool),
	}, nil
}

// SetFrameRef sets the frame reference attached to alert events raised on
// subsequent updates
func (e *Engine) SetFrameRef(ref string) {
	e.frameRef = ref
}

// Counts returns the monotonic entered and exited totals.  The number of
// objects currently inside the count zone is entered minus exited
func (e *Engine) Counts() (entered, exited int) {
	return e.enteredCount, e.exitedCount
}

// Alerted reports whether an alert has already fired for the given id
func (e *Engine) Alerted(id int64) bool {
	return e.alerted[id]
}

// Reset clears all membership state and counters
func (e *Engine) Reset() {
	e.entered = make(map[int64]bool)
	e.entryTime = make(map[int64]time.Time)
	e.alerted = make(map[int64]bool)
	e.enteredCount = 0
	e.exitedCount = 0
}

// Update advances both zone state machines for one track using its
// current bounding box center and the frame timestamp.  Counters only
// change on a membership transition, steady-state containment is a no-op
func (e *Engine) Update(id int64, class int, pt geom.Point, now time.Time) Result {

	var res Result

	// count zone entry is boundary inclusive
	if !e.entered[id] && e.count.Contains(pt) {
		e.entered[id] = true
		e.enteredCount++
		res.Entered = true
	}

	if e.alert.Contains(pt) {

		if e.alertClasses[class] {

			t, seen := e.entryTime[id]

			if !seen {
				e.entryTime[id] = now
			} else if now.Sub(t) > e.dwell {

				res.Dwelling = true

				// fire exactly once per track id
				if !e.alerted[id] {
					e.alerted[id] = true
					res.Alert = &AlertEvent{
						TrackID:  id,
						Class:    class,
						At:       now,
						FrameRef: e.frameRef,
					}
				}
			}

		} else {
			// class not eligible for alerts, drop any pending timer
			delete(e.entryTime, id)
		}

	} else if e.entered[id] && e.count.SignedDistance(pt) < 0 {
		// count zone exit is strict exterior so boundary points never
		// oscillate the counters
		e.entered[id] = false
		e.exitedCount++
		res.Exited = true

		delete(e.entryTime, id)
	}

	return res
}
