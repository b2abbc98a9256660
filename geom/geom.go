package geom

import (
	"math"
)

// Point is an x,y coordinate on the image plane.  Values are in pixel
// units but kept as float32 since upstream detectors emit sub-pixel
// box centers.
type Point struct {
	X, Y float32
}

// Dist returns the Euclidean distance to the other point in pixels
func (p Point) Dist(other Point) float32 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return float32(math.Sqrt(dx*dx + dy*dy))
}

// Box represents a bounding box in (center x, center y, width, height)
// format, the layout produced by the upstream detector/tracker
type Box struct {
	// X and Y are the coordinates of the box center
	X, Y float32
	// W and H are the box width and height
	W, H float32
}

// NewBox creates a new Box with the given center coordinates and dimensions
func NewBox(x, y, w, h float32) Box {
	return Box{X: x, Y: y, W: w, H: h}
}

// Center returns the center point of the box
func (b Box) Center() Point {
	return Point{X: b.X, Y: b.Y}
}

// TLX returns the top-left x coordinate of the box
func (b Box) TLX() float32 {
	return b.X - b.W/2
}

// TLY returns the top-left y coordinate of the box
func (b Box) TLY() float32 {
	return b.Y - b.H/2
}

// BRX returns the bottom-right x coordinate of the box
func (b Box) BRX() float32 {
	return b.X + b.W/2
}

// BRY returns the bottom-right y coordinate of the box
func (b Box) BRY() float32 {
	return b.Y + b.H/2
}

// Area returns the area of the box in square pixels
func (b Box) Area() float32 {
	return b.W * b.H
}

// AspectRatio returns the width to height ratio of the box.  A box with
// zero height has an aspect ratio of zero
func (b Box) AspectRatio() float32 {
	if b.H == 0 {
		return 0
	}
	return b.W / b.H
}

// IoU calculates the Intersection over Union of two boxes.  The result is
// in the range [0,1] where 0 means no overlap and 1 means the boxes are
// identical.  Degenerate boxes with a non-positive union area return 0
func IoU(a, b Box) float32 {

	ix := float32(math.Min(float64(a.BRX()), float64(b.BRX())) -
		math.Max(float64(a.TLX()), float64(b.TLX())))

	if ix <= 0 {
		return 0
	}

	iy := float32(math.Min(float64(a.BRY()), float64(b.BRY())) -
		math.Max(float64(a.TLY()), float64(b.TLY())))

	if iy <= 0 {
		return 0
	}

	intersection := ix * iy
	union := a.Area() + b.Area() - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}
