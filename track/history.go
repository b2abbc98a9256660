package track

import (
	"sync"
	"time"

	"github.com/trafficwatch/go-trafficwatch/geom"
)

// DefaultSize is the maximum number of recent center points kept per
// track id
const DefaultSize = 30

// Record holds the recent point history of a single track id
type Record struct {
	points   []geom.Point
	lastSeen time.Time
}

// History keeps a bounded history of bounding box center points per track
// id, used for drawing trails and inspecting recent movement
type History struct {
	// size is the maximum number of most recent points to keep per id
	size int
	// records of tracked points keyed by track id
	records map[int64]*Record
	sync.Mutex
}

// NewHistory returns a new track history instance.  Size is the maximum
// number of most recent points to keep per track id, values below 1 fall
// back to DefaultSize
func NewHistory(size int) *History {

	if size < 1 {
		size = DefaultSize
	}

	return &History{
		size:    size,
		records: make(map[int64]*Record),
	}
}

// Reset clears all history
func (h *History) Reset() {
	h.Lock()
	defer h.Unlock()

	h.records = make(map[int64]*Record)
}

// Append adds a center point to the history of the given track id,
// creating a record on first sighting and evicting the oldest point once
// the buffer is full
func (h *History) Append(id int64, pt geom.Point, now time.Time) {
	h.Lock()
	defer h.Unlock()

	rec, exists := h.records[id]

	if !exists {
		rec = &Record{}
		h.records[id] = rec
	}

	rec.points = append(rec.points, pt)
	rec.lastSeen = now

	// check if history is exceeded and drop oldest point
	if len(rec.points) > h.size {
		rec.points = rec.points[1:]
	}
}

// Latest returns the most recent center point recorded for the given
// track id.  The second return value is false when the id has no record
func (h *History) Latest(id int64) (geom.Point, bool) {
	h.Lock()
	defer h.Unlock()

	rec, exists := h.records[id]

	if !exists || len(rec.points) == 0 {
		return geom.Point{}, false
	}

	return rec.points[len(rec.points)-1], true
}

// Points gets the point history for a specific track id
func (h *History) Points(id int64) []geom.Point {
	h.Lock()
	defer h.Unlock()

	if rec, exists := h.records[id]; exists {
		return rec.points
	}

	// no history yet
	return nil
}

// Len returns the number of track ids currently held
func (h *History) Len() int {
	h.Lock()
	defer h.Unlock()

	return len(h.records)
}

// EvictStale drops the records of track ids not seen within the given
// horizon before now.  It returns the number of records removed.  This
// bounds memory on long running streams where the upstream tracker keeps
// assigning fresh ids
func (h *History) EvictStale(olderThan time.Duration, now time.Time) int {
	h.Lock()
	defer h.Unlock()

	removed := 0

	for id, rec := range h.records {
		if now.Sub(rec.lastSeen) > olderThan {
			delete(h.records, id)
			removed++
		}
	}

	return removed
}
