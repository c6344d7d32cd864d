package result

import (
	"fmt"
	"math"
)

// Detection defines the attributes of a single object detected in one frame.
// Coordinates use the center+size convention in whatever units the producing
// model emits (normalized or absolute pixels), as long as all detections
// compared against each other share the same units.
type Detection struct {
	// Class is the label of the detected object
	Class string
	// Confidence is the confidence score of the object detected
	Confidence float32
	// X is the center x coordinate of the bounding box
	X float32
	// Y is the center y coordinate of the bounding box
	Y float32
	// Width is the bounding box width
	Width float32
	// Height is the bounding box height
	Height float32
	// ID is a unique ID assigned to the detection result
	ID int64
	// Track holds optional stabilization debug fields, nil for raw
	// detections straight from the model
	Track *TrackInfo
}

// TrackInfo carries debug fields attached to a detection emitted by the
// stabilization engine.
type TrackInfo struct {
	// AvgConfidence is the mean confidence over the track's recent history
	AvgConfidence float32
	// FramesTracked is the current consecutive-frame streak of the track
	FramesTracked int
}

// Corners returns the bounding box in (x1, y1, x2, y2) corner format.
func (d Detection) Corners() (x1, y1, x2, y2 float32) {
	return d.X - d.Width/2, d.Y - d.Height/2,
		d.X + d.Width/2, d.Y + d.Height/2
}

// Area returns the bounding box area.
func (d Detection) Area() float32 {
	return d.Width * d.Height
}

// Validate checks that a detection record is well formed.  Malformed input
// is a precondition violation by the producing runtime and is rejected
// before it can corrupt any tracking state.
func (d Detection) Validate() error {
	if d.Class == "" {
		return fmt.Errorf("detection has empty class")
	}

	if math.IsNaN(float64(d.Confidence)) || d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("detection confidence %f outside [0,1]", d.Confidence)
	}

	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("detection has negative size %fx%f", d.Width, d.Height)
	}

	if math.IsNaN(float64(d.X)) || math.IsNaN(float64(d.Y)) ||
		math.IsNaN(float64(d.Width)) || math.IsNaN(float64(d.Height)) {
		return fmt.Errorf("detection has NaN geometry")
	}

	return nil
}

// IoU calculates the Intersection over Union between the bounding boxes of
// two detections.
//
// Properties:
//   - Symmetric: IoU(a, b) == IoU(b, a)
//   - Bounded: 0.0 <= IoU <= 1.0
//   - Identity: IoU(a, a) == 1.0 for boxes with area
//   - Disjoint or zero-area boxes score 0.0
func IoU(a, b Detection) float32 {

	ax1, ay1, ax2, ay2 := a.Corners()
	bx1, by1, bx2, by2 := b.Corners()

	interX1 := max32(ax1, bx1)
	interY1 := max32(ay1, by1)
	interX2 := min32(ax2, bx2)
	interY2 := min32(ay2, by2)

	if interX2 < interX1 || interY2 < interY1 {
		return 0
	}

	interArea := (interX2 - interX1) * (interY2 - interY1)

	unionArea := a.Area() + b.Area() - interArea

	if unionArea <= 0 {
		return 0
	}

	return interArea / unionArea
}

// max32 returns max between two numbers
func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// min32 returns minimum between two numbers
func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
