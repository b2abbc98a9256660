package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Font defines the parameters for rendering overlay text with GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Pad is the pixel gap kept between label text and the edges of its
	// backing box
	Pad int
}

// DefaultFont returns the font settings used for detection labels
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		Pad:       4,
	}
}
