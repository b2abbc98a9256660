package render

import (
	"image"
	"image/color"

	trafficwatch "github.com/trafficwatch/go-trafficwatch"
	"github.com/trafficwatch/go-trafficwatch/track"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be the
	// same color as that of the bounding box.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 1,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trails draws the recent movement trail of each detection on the source
// image using the point history store
func Trails(img *gocv.Mat, dets []trafficwatch.Detection,
	hist *track.History, style TrailStyle) {

	for _, det := range dets {

		objClr := ClassColor(det.Class)

		// determine style colors to use
		lineClr := objClr
		circleClr := objClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		// draw trail line showing tracking history
		points := hist.Points(det.TrackID)

		if len(points) > 2 {
			// draw trail
			for i := 1; i < len(points); i++ {
				// draw line segment of trail
				gocv.Line(img,
					image.Pt(int(points[i-1].X), int(points[i-1].Y)),
					image.Pt(int(points[i].X), int(points[i].Y)),
					lineClr, style.LineThickness,
				)

				if i == len(points)-1 {
					// draw center point circle on current rect/box
					gocv.Circle(img, image.Pt(int(points[i].X), int(points[i].Y)),
						style.CircleRadius, circleClr, -1)
				}
			}
		}
	}
}
