package trafficwatch

import (
	"github.com/trafficwatch/go-trafficwatch/geom"
	"github.com/trafficwatch/go-trafficwatch/suppress"
)

// Detection is a single object reported by the upstream detector/tracker
// for one frame
type Detection struct {
	// Box is the bounding box of the object in center format
	Box geom.Box
	// TrackID is the stable id the upstream tracker assigned to the
	// object across frames
	TrackID int64
	// Class is the object class index the detector was trained with
	Class int
	// Score is the confidence of the detection in the range 0 to 1
	Score float32
}

// Suppress de-duplicates one frame of detections using the given filter
// settings and returns the kept subset.  Result order is not significant
func Suppress(dets []Detection, cfg suppress.Config) []Detection {

	if len(dets) == 0 {
		return nil
	}

	boxes := make([]geom.Box, len(dets))
	scores := make([]float32, len(dets))

	for i, d := range dets {
		boxes[i] = d.Box
		scores[i] = d.Score
	}

	keep := suppress.NewFilter(cfg).Apply(boxes, scores)

	out := make([]Detection, 0, len(keep))

	for _, i := range keep {
		out = append(out, dets[i])
	}

	return out
}
