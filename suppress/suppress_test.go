package suppress

import (
	"sort"
	"testing"

	"github.com/trafficwatch/go-trafficwatch/geom"
)

func testConfig() Config {
	return DefaultConfig(1920, 1080)
}

// sortedCopy returns the indices sorted ascending so keep sets can be
// compared independent of NMS visit order
func sortedCopy(idxs []int) []int {
	out := make([]int, len(idxs))
	copy(out, idxs)
	sort.Ints(out)
	return out
}

func equalSets(a, b []int) bool {
	a, b = sortedCopy(a), sortedCopy(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyEmpty(t *testing.T) {

	f := NewFilter(testConfig())

	if got := f.Apply(nil, nil); len(got) != 0 {
		t.Errorf("Apply on empty input returned %v, want empty", got)
	}
}

func TestAreaFilter(t *testing.T) {

	f := NewFilter(testConfig())

	boxes := []geom.Box{
		// plausible vehicle box
		geom.NewBox(400, 400, 120, 80),
		// covers over 1/5 of a 1920x1080 frame, must be rejected
		geom.NewBox(960, 540, 1000, 600),
	}
	scores := []float32{0.9, 0.95}

	got := f.Apply(boxes, scores)

	if !equalSets(got, []int{0}) {
		t.Errorf("Apply = %v, want [0]", got)
	}
}

func TestNMSDropsOverlap(t *testing.T) {

	f := NewFilter(testConfig())

	boxes := []geom.Box{
		geom.NewBox(400, 400, 100, 100),
		// near duplicate of the first box with a lower score
		geom.NewBox(405, 402, 100, 100),
		// far away box unaffected by the overlap
		geom.NewBox(1200, 400, 100, 100),
	}
	scores := []float32{0.8, 0.7, 0.6}

	got := f.Apply(boxes, scores)

	if !equalSets(got, []int{0, 2}) {
		t.Errorf("Apply = %v, want [0 2]", got)
	}
}

func TestNMSKeepsHighestScore(t *testing.T) {

	f := NewFilter(testConfig())

	// duplicate pair where the second box has the higher score
	boxes := []geom.Box{
		geom.NewBox(400, 400, 100, 100),
		geom.NewBox(405, 402, 100, 100),
	}
	scores := []float32{0.6, 0.9}

	got := f.Apply(boxes, scores)

	if !equalSets(got, []int{1}) {
		t.Errorf("Apply = %v, want [1]", got)
	}
}

func TestAspectRatioFilter(t *testing.T) {

	f := NewFilter(testConfig())

	boxes := []geom.Box{
		// ratio 10.0, implausibly wide
		geom.NewBox(400, 400, 500, 50),
		// ratio 0.1, implausibly tall
		geom.NewBox(800, 400, 20, 200),
		// ratio 1.5, plausible
		geom.NewBox(1200, 400, 120, 80),
	}
	scores := []float32{0.9, 0.9, 0.9}

	got := f.Apply(boxes, scores)

	if !equalSets(got, []int{2}) {
		t.Errorf("Apply = %v, want [2]", got)
	}
}

func TestApplyIdempotent(t *testing.T) {

	f := NewFilter(testConfig())

	boxes := []geom.Box{
		geom.NewBox(400, 400, 100, 100),
		geom.NewBox(405, 402, 100, 100),
		geom.NewBox(1200, 400, 120, 80),
		geom.NewBox(800, 700, 90, 110),
	}
	scores := []float32{0.8, 0.7, 0.95, 0.5}

	first := f.Apply(boxes, scores)

	// rerun suppression on its own output
	keptBoxes := make([]geom.Box, len(first))
	keptScores := make([]float32, len(first))

	for i, idx := range first {
		keptBoxes[i] = boxes[idx]
		keptScores[i] = scores[idx]
	}

	second := f.Apply(keptBoxes, keptScores)

	if len(second) != len(first) {
		t.Errorf("suppression not idempotent: first pass kept %d, second pass kept %d",
			len(first), len(second))
	}
}

// TestApplyInvariants checks every surviving box satisfies the area and
// aspect-ratio constraints regardless of input
func TestApplyInvariants(t *testing.T) {

	cfg := testConfig()
	f := NewFilter(cfg)

	boxes := []geom.Box{
		geom.NewBox(960, 540, 1920, 540),
		geom.NewBox(100, 100, 60, 40),
		geom.NewBox(102, 101, 62, 44),
		geom.NewBox(500, 500, 600, 20),
		geom.NewBox(700, 300, 30, 400),
		geom.NewBox(1500, 800, 200, 100),
	}
	scores := []float32{0.99, 0.9, 0.85, 0.8, 0.7, 0.6}

	for _, i := range f.Apply(boxes, scores) {

		if boxes[i].Area() >= cfg.FrameArea*cfg.MaxAreaFrac {
			t.Errorf("kept box %d exceeds the area limit", i)
		}

		ar := boxes[i].AspectRatio()
		if ar <= cfg.AspectMin || ar >= cfg.AspectMax {
			t.Errorf("kept box %d has aspect ratio %f outside (%f,%f)",
				i, ar, cfg.AspectMin, cfg.AspectMax)
		}
	}
}
