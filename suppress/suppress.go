package suppress

import (
	"sort"

	"github.com/trafficwatch/go-trafficwatch/geom"
)

const (
	// DefaultIoUThreshold is the maximum allowed Intersection over Union
	// between two boxes for both to be kept during NMS
	DefaultIoUThreshold = 0.4
	// DefaultMaxAreaFrac is the fraction of the frame area above which a
	// detection box is considered spurious and discarded
	DefaultMaxAreaFrac = 0.2
	// DefaultAspectMin and DefaultAspectMax bound the width/height ratio
	// of a plausible detection box
	DefaultAspectMin = 0.2
	DefaultAspectMax = 5.0
)

// Config defines the parameters of the suppression filter
type Config struct {
	// FrameArea is the pixel area of the video frame the detections
	// were produced from
	FrameArea float32
	// IoUThreshold is the NMS overlap threshold
	IoUThreshold float32
	// MaxAreaFrac is the maximum box area as a fraction of FrameArea
	MaxAreaFrac float32
	// AspectMin and AspectMax bound the allowed width/height ratio
	AspectMin float32
	AspectMax float32
}

// DefaultConfig returns filter settings for a video frame of the given
// pixel dimensions using the default thresholds
func DefaultConfig(frameWidth, frameHeight int) Config {
	return Config{
		FrameArea:    float32(frameWidth) * float32(frameHeight),
		IoUThreshold: DefaultIoUThreshold,
		MaxAreaFrac:  DefaultMaxAreaFrac,
		AspectMin:    DefaultAspectMin,
		AspectMax:    DefaultAspectMax,
	}
}

// Filter de-duplicates one frame of detection boxes.  It runs three
// stages in order: an area sanity filter, greedy Non-Maximum Suppression
// by confidence score, and an aspect-ratio sanity filter
type Filter struct {
	cfg Config
}

// NewFilter returns a suppression filter using the given settings
func NewFilter(cfg Config) *Filter {
	return &Filter{
		cfg: cfg,
	}
}

// Apply runs the filter stages over the parallel slices of boxes and
// confidence scores and returns the indices of the boxes kept.  An empty
// input produces an empty result, it is not an error
func (f *Filter) Apply(boxes []geom.Box, scores []float32) []int {

	if len(boxes) == 0 {
		return nil
	}

	// area filter, reject oversized boxes
	keep := make([]int, 0, len(boxes))

	for i, box := range boxes {
		if box.Area() < f.cfg.FrameArea*f.cfg.MaxAreaFrac {
			keep = append(keep, i)
		}
	}

	keep = f.nms(boxes, scores, keep)

	// aspect-ratio filter, a box needs a plausible width/height ratio
	// to contain a single object
	final := make([]int, 0, len(keep))

	for _, i := range keep {
		ar := boxes[i].AspectRatio()

		if ar > f.cfg.AspectMin && ar < f.cfg.AspectMax {
			final = append(final, i)
		}
	}

	return final
}

// nms performs greedy Non-Maximum Suppression over the candidate indices.
// Candidates are visited in descending score order, ties broken by the
// original index so results are deterministic for identical scores
func (f *Filter) nms(boxes []geom.Box, scores []float32, idxs []int) []int {

	order := make([]int, len(idxs))
	copy(order, idxs)

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	suppressed := make([]bool, len(order))
	keep := make([]int, 0, len(order))

	for i := 0; i < len(order); i++ {

		if suppressed[i] {
			continue
		}

		n := order[i]
		keep = append(keep, n)

		// drop every remaining box overlapping the kept one
		for j := i + 1; j < len(order); j++ {

			if suppressed[j] {
				continue
			}

			if geom.IoU(boxes[n], boxes[order[j]]) > f.cfg.IoUThreshold {
				suppressed[j] = true
			}
		}
	}

	return keep
}
