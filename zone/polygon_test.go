package zone

import (
	"math"
	"testing"

	"github.com/trafficwatch/go-trafficwatch/geom"
)

func square(t *testing.T) Polygon {
	t.Helper()

	p, err := NewPolygon([]geom.Point{
		{X: 0, Y: 0},
		{X: 100, Y: 0},
		{X: 100, Y: 100},
		{X: 0, Y: 100},
	})

	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}

	return p
}

func TestNewPolygonTooFewVertices(t *testing.T) {

	_, err := NewPolygon([]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 10}})

	if err == nil {
		t.Error("NewPolygon accepted a 2 vertex polygon")
	}
}

func TestContains(t *testing.T) {

	p := square(t)

	cases := []struct {
		pt   geom.Point
		want bool
	}{
		{geom.Point{X: 50, Y: 50}, true},
		{geom.Point{X: 1, Y: 1}, true},
		{geom.Point{X: 150, Y: 50}, false},
		{geom.Point{X: -1, Y: 50}, false},
		{geom.Point{X: 50, Y: 101}, false},
		// boundary points are inside for the entry test
		{geom.Point{X: 0, Y: 50}, true},
		{geom.Point{X: 100, Y: 100}, true},
	}

	for _, c := range cases {
		if got := p.Contains(c.pt); got != c.want {
			t.Errorf("Contains(%+v) = %v, want %v", c.pt, got, c.want)
		}
	}
}

func TestSignedDistance(t *testing.T) {

	p := square(t)

	// interior point 30 pixels from the nearest edge
	if d := p.SignedDistance(geom.Point{X: 30, Y: 50}); math.Abs(float64(d)-30) > 1e-3 {
		t.Errorf("interior SignedDistance = %f, want 30", d)
	}

	// exterior point 20 pixels past the right edge
	if d := p.SignedDistance(geom.Point{X: 120, Y: 50}); math.Abs(float64(d)+20) > 1e-3 {
		t.Errorf("exterior SignedDistance = %f, want -20", d)
	}

	// boundary point is zero, so a strict negative exit test does not
	// trigger on the edge itself
	if d := p.SignedDistance(geom.Point{X: 100, Y: 50}); math.Abs(float64(d)) > 1e-3 {
		t.Errorf("boundary SignedDistance = %f, want 0", d)
	}
}

func TestSignedDistanceConcave(t *testing.T) {

	// L shaped polygon, the notch at the top right is outside
	p, err := NewPolygon([]geom.Point{
		{X: 0, Y: 0},
		{X: 50, Y: 0},
		{X: 50, Y: 50},
		{X: 100, Y: 50},
		{X: 100, Y: 100},
		{X: 0, Y: 100},
	})

	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}

	if !p.Contains(geom.Point{X: 25, Y: 25}) {
		t.Error("point in the upper arm reported outside")
	}

	if p.Contains(geom.Point{X: 75, Y: 25}) {
		t.Error("point in the notch reported inside")
	}

	if !p.Contains(geom.Point{X: 75, Y: 75}) {
		t.Error("point in the lower body reported outside")
	}
}

func TestInflateNoOp(t *testing.T) {

	p := square(t)

	if got := p.Inflate(0); len(got.Points()) != len(p.Points()) {
		t.Error("Inflate(0) changed the polygon")
	}

	if got := p.Inflate(-5); len(got.Points()) != len(p.Points()) {
		t.Error("Inflate with a negative margin changed the polygon")
	}
}

func TestInflateGrows(t *testing.T) {

	p := square(t)
	grown := p.Inflate(10)

	// every original vertex must still be inside, and the inflated shape
	// must contain points just past the original edges
	for _, pt := range p.Points() {
		if !grown.Contains(pt) {
			t.Errorf("inflated polygon lost original vertex %+v", pt)
		}
	}

	if !grown.Contains(geom.Point{X: 105, Y: 50}) {
		t.Error("inflated polygon does not cover a point 5px past the edge")
	}
}
