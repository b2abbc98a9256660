package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/trafficwatch/go-trafficwatch/zone"
	"gocv.io/x/gocv"
)

// Zone fills the polygon with a translucent overlay by blending a filled
// mask over the source image.  Alpha is the overlay weight, eg 0.1 for a
// subtle count zone tint and 0.2 for the alert flash
func Zone(img *gocv.Mat, poly zone.Polygon, clr color.RGBA, alpha float64) {

	mask := gocv.NewMatWithSize(img.Rows(), img.Cols(), img.Type())
	defer mask.Close()

	pts := make([]image.Point, 0, len(poly.Points()))

	for _, pt := range poly.Points() {
		pts = append(pts, image.Pt(int(pt.X), int(pt.Y)))
	}

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()

	gocv.FillPoly(&mask, pv, clr)

	// blend the mask over the source so the zone shows through
	gocv.AddWeighted(*img, 1.0, mask, alpha, 0, img)
}

// ZoneOutline draws the polygon edges without filling it
func ZoneOutline(img *gocv.Mat, poly zone.Polygon, clr color.RGBA, thickness int) {

	pts := poly.Points()

	for i := range pts {
		j := (i + 1) % len(pts)

		gocv.Line(img,
			image.Pt(int(pts[i].X), int(pts[i].Y)),
			image.Pt(int(pts[j].X), int(pts[j].Y)),
			clr, thickness)
	}
}

// AlertMarkers draws the warning text above each dwelling track using the
// latest known position from the detections of this frame.  When a
// TextDrawer is given the caption is rendered with its TTF face so non
// Latin scripts display, a nil drawer falls back to the built in Hershey
// font
func AlertMarkers(img *gocv.Mat, dwelling []int64,
	positions map[int64]image.Point, font Font, td *TextDrawer) {

	for _, id := range dwelling {

		pos, ok := positions[id]

		if !ok {
			continue
		}

		if td != nil {
			err := td.Draw(img, fmt.Sprintf("警告：物体 ID %d 进入了警告区域", id),
				pos.X, pos.Y-10, Yellow)

			if err == nil {
				continue
			}
		}

		gocv.PutTextWithParams(img, fmt.Sprintf("warn: ID %d", id),
			image.Pt(pos.X, pos.Y-10),
			font.Face, 1.0, Yellow, 2, font.LineType, false)
	}
}
