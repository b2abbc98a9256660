package zone

import (
	"fmt"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/trafficwatch/go-trafficwatch/geom"
)

// Polygon is a closed polygon on the image plane defining a zone of
// interest.  Vertices are given in order, the edge from the last vertex
// back to the first closes the shape
type Polygon struct {
	pts []geom.Point
}

// NewPolygon creates a polygon from the given vertices.  A polygon needs
// at least 3 vertices, fewer is a configuration error
func NewPolygon(pts []geom.Point) (Polygon, error) {

	if len(pts) < 3 {
		return Polygon{}, fmt.Errorf("polygon needs at least 3 vertices, got %d", len(pts))
	}

	cp := make([]geom.Point, len(pts))
	copy(cp, pts)

	return Polygon{pts: cp}, nil
}

// Points returns the polygon vertices
func (p Polygon) Points() []geom.Point {
	return p.pts
}

// Contains reports whether the point lies inside the polygon or on its
// boundary
func (p Polygon) Contains(pt geom.Point) bool {
	return p.SignedDistance(pt) >= 0
}

// SignedDistance returns the distance in pixels from the point to the
// nearest polygon edge, positive when the point is inside, negative when
// outside and zero on the boundary.  Callers testing zone exit use a
// strict negative check so points on the boundary never oscillate
// between inside and outside
func (p Polygon) SignedDistance(pt geom.Point) float32 {

	minDist := math.MaxFloat64

	j := len(p.pts) - 1
	for i := 0; i < len(p.pts); i++ {
		d := segmentDist(pt, p.pts[i], p.pts[j])

		if d < minDist {
			minDist = d
		}
		j = i
	}

	if p.inside(pt) {
		return float32(minDist)
	}

	return float32(-minDist)
}

// inside performs a ray-casting point-in-polygon test.  Boundary points
// may report either side, SignedDistance resolves them to zero distance
func (p Polygon) inside(pt geom.Point) bool {

	in := false

	j := len(p.pts) - 1
	for i := 0; i < len(p.pts); i++ {
		pi := p.pts[i]
		pj := p.pts[j]

		if (pi.Y > pt.Y) != (pj.Y > pt.Y) &&
			pt.X < (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			in = !in
		}
		j = i
	}

	return in
}

// segmentDist returns the distance from pt to the line segment a-b
func segmentDist(pt, a, b geom.Point) float64 {

	px := float64(pt.X)
	py := float64(pt.Y)
	ax := float64(a.X)
	ay := float64(a.Y)
	bx := float64(b.X)
	by := float64(b.Y)

	dx := bx - ax
	dy := by - ay

	segLen := dx*dx + dy*dy

	// degenerate segment, both ends are the same point
	if segLen == 0 {
		return math.Hypot(px-ax, py-ay)
	}

	// project pt onto the segment and clamp to its extent
	t := ((px-ax)*dx + (py-ay)*dy) / segLen

	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

// Inflate returns a copy of the polygon offset outwards by margin pixels
// using a polygon offsetting operation.  A zero or negative margin
// returns the polygon unchanged.  Used to pad the alert zone so slow
// moving objects are picked up slightly before crossing the painted edge
func (p Polygon) Inflate(margin float64) Polygon {

	if margin <= 0 {
		return p
	}

	// convert the vertices to a Clipper path
	var path clipper.Path

	for _, pt := range p.pts {
		path = append(path, &clipper.IntPoint{X: clipper.CInt(pt.X), Y: clipper.CInt(pt.Y)})
	}

	// create a ClipperOffset object and add the path
	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	// execute the offset operation
	solution := co.Execute(margin)

	if len(solution) == 0 || len(solution[0]) < 3 {
		return p
	}

	out := make([]geom.Point, 0, len(solution[0]))

	for _, ip := range solution[0] {
		out = append(out, geom.Point{X: float32(ip.X), Y: float32(ip.Y)})
	}

	return Polygon{pts: out}
}
