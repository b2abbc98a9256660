package render

import (
	"fmt"
	"image"
	"image/color"

	trafficwatch "github.com/trafficwatch/go-trafficwatch"
	"gocv.io/x/gocv"
)

// boxLabel holds the label rendering details of one detection box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// SpeedFunc looks up the smoothed speed in km/h of a track id for the
// box label, eg speed.Analyzer.Speed.  A nil func omits speeds
type SpeedFunc func(id int64) float64

// DetectionBoxes renders the bounding boxes around the detected objects
// with a label carrying class name, track id and optionally the current
// smoothed speed
func DetectionBoxes(img *gocv.Mat, dets []trafficwatch.Detection,
	classNames []string, speedOf SpeedFunc, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	// draw detection boxes
	for _, det := range dets {

		useClr := ClassColor(det.Class)

		left := int(det.Box.TLX())
		top := int(det.Box.TLY())
		right := int(det.Box.BRX())
		bottom := int(det.Box.BRY())

		// draw rectangle around detected object
		rect := image.Rect(left, top, right, bottom)
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// create text for label
		name := fmt.Sprintf("class %d", det.Class)

		if det.Class >= 0 && det.Class < len(classNames) {
			name = classNames[det.Class]
		}

		text := fmt.Sprintf("%s %d", name, det.TrackID)

		if speedOf != nil {
			if kmh := speedOf(det.TrackID); kmh > 0 {
				text = fmt.Sprintf("%s %.0fkm/h", text, kmh)
			}
		}

		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// label sits on top of the box, anchored to its top left corner
		labelPosition := image.Pt(left+font.Pad, top-font.Pad)

		// create box for placing text on
		bRect := image.Rect(left, top-textSize.Y-2*font.Pad,
			left+textSize.X+2*font.Pad, top)

		// record label rendering details
		nextLabel := boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		}
		boxLabels = append(boxLabels, nextLabel)
	}

	// draw all precalculated box labels last so they stay the top most
	// layer on the image
	for _, box := range boxLabels {

		// draw box the text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
