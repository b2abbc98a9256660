package render

import (
	"fmt"
	"image"

	trafficwatch "github.com/trafficwatch/go-trafficwatch"
	"gocv.io/x/gocv"
)

// Stats draws the aggregate statistics banner across the top of the
// image: frame number, zone counters, fleet average speed and the
// cumulative vehicle count
func Stats(img *gocv.Mat, res trafficwatch.FrameResult, frameNum int, fps float64) {

	// blank out background video
	rect := image.Rect(0, 0, img.Cols(), 36)
	gocv.Rectangle(img, rect, Black, -1)

	gocv.PutTextWithParams(img,
		fmt.Sprintf("Frame: %d, FPS: %.2f, Objects: %d",
			frameNum, fps, len(res.Detections)),
		image.Pt(4, 14), gocv.FontHersheySimplex, 0.5, Pink, 1,
		gocv.LineAA, false)

	gocv.PutTextWithParams(img,
		fmt.Sprintf("In: %d, Out: %d, Current: %d, Avg Speed: %.1fkm/h, Vehicles: %d",
			res.EnteredTotal, res.ExitedTotal, res.CurrentCount,
			res.FleetAverage, res.VehicleCount),
		image.Pt(4, 30), gocv.FontHersheySimplex, 0.5, Pink, 1,
		gocv.LineAA, false)
}
