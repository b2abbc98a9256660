package track

import (
	"testing"
	"time"

	"github.com/trafficwatch/go-trafficwatch/geom"
)

func TestAppendAndLatest(t *testing.T) {

	h := NewHistory(DefaultSize)
	now := time.Now()

	if _, ok := h.Latest(7); ok {
		t.Error("Latest on unknown id reported a point")
	}

	h.Append(7, geom.Point{X: 10, Y: 20}, now)
	h.Append(7, geom.Point{X: 12, Y: 21}, now.Add(33*time.Millisecond))

	pt, ok := h.Latest(7)

	if !ok {
		t.Fatal("Latest on known id reported no point")
	}

	if pt.X != 12 || pt.Y != 21 {
		t.Errorf("Latest = %+v, want (12,21)", pt)
	}
}

func TestHistoryBounded(t *testing.T) {

	h := NewHistory(DefaultSize)
	now := time.Now()

	for i := 0; i < 500; i++ {
		h.Append(1, geom.Point{X: float32(i), Y: 0}, now.Add(time.Duration(i)*33*time.Millisecond))
	}

	pts := h.Points(1)

	if len(pts) != DefaultSize {
		t.Errorf("history holds %d points, want %d", len(pts), DefaultSize)
	}

	// oldest surviving point is update 470, the most recent is 499
	if pts[0].X != 470 || pts[len(pts)-1].X != 499 {
		t.Errorf("unexpected FIFO eviction order: first=%f last=%f",
			pts[0].X, pts[len(pts)-1].X)
	}
}

func TestEvictStale(t *testing.T) {

	h := NewHistory(DefaultSize)
	now := time.Now()

	h.Append(1, geom.Point{X: 1, Y: 1}, now)
	h.Append(2, geom.Point{X: 2, Y: 2}, now.Add(8*time.Second))

	removed := h.EvictStale(5*time.Second, now.Add(9*time.Second))

	if removed != 1 {
		t.Errorf("EvictStale removed %d records, want 1", removed)
	}

	if _, ok := h.Latest(1); ok {
		t.Error("stale record for id 1 survived eviction")
	}

	if _, ok := h.Latest(2); !ok {
		t.Error("fresh record for id 2 was evicted")
	}
}

func TestReset(t *testing.T) {

	h := NewHistory(DefaultSize)
	h.Append(1, geom.Point{X: 1, Y: 1}, time.Now())
	h.Reset()

	if h.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", h.Len())
	}
}
