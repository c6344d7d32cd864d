// Package roi implements the adaptive region-of-interest engine.  It keeps
// a per-source square crop box sized in multiples of the model input
// resolution and smoothed over time, so the host inference runtime can focus
// the next frame's inference on the region most likely to contain activity.
package roi

import "math"

// FrameShape holds the pixel dimensions of a video frame.
type FrameShape struct {
	Height int
	Width  int
}

// Area returns the frame area in pixels.
func (f FrameShape) Area() int {
	return f.Height * f.Width
}

// Box is an axis-aligned region in absolute pixel coordinates.  After
// normalization through MakeSquareMultiple a box is square, sized as an
// integer multiple of the model input resolution, and within frame bounds.
type Box struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Width returns the box width in pixels.
func (b Box) Width() int {
	return b.X2 - b.X1
}

// Height returns the box height in pixels.
func (b Box) Height() int {
	return b.Y2 - b.Y1
}

// Area returns the box area in pixels.
func (b Box) Area() int {
	return b.Width() * b.Height()
}

// IsSquare reports whether the box width and height are equal.
func (b Box) IsSquare() bool {
	return b.Width() == b.Height()
}

// SizeMultiple returns the box size expressed as a multiple of the model
// input resolution, eg 2.0 for a 640px box with imgsz 320.
func (b Box) SizeMultiple(imgsz int) float64 {
	if imgsz <= 0 {
		return 0
	}
	return float64(maxInt(b.Width(), b.Height())) / float64(imgsz)
}

// CropRatio returns the ratio of the box area to the full frame area.
func (b Box) CropRatio(frame FrameShape) float64 {
	if frame.Area() <= 0 {
		return 0
	}
	return float64(b.Area()) / float64(frame.Area())
}

// Expand grows the box by margin (a fraction of the frame dimensions) on
// each side, clipped to frame bounds.  When preserveSquare is set and the
// input box is square, the larger of the two computed margins is applied on
// both axes; if clipping still broke squareness against a frame edge, the
// longer side is shrunk back to the shorter one, re-centered within the
// clipped extent, so a square input always yields a square result.
func (b Box) Expand(margin float64, frame FrameShape, preserveSquare bool) Box {

	marginX := int(margin * float64(frame.Width))
	marginY := int(margin * float64(frame.Height))

	wasSquare := preserveSquare && b.IsSquare()

	if wasSquare {
		m := maxInt(marginX, marginY)
		marginX = m
		marginY = m
	}

	expanded := Box{
		X1: maxInt(0, b.X1-marginX),
		Y1: maxInt(0, b.Y1-marginY),
		X2: minInt(frame.Width, b.X2+marginX),
		Y2: minInt(frame.Height, b.Y2+marginY),
	}

	if wasSquare && !expanded.IsSquare() {
		side := minInt(expanded.Width(), expanded.Height())
		centerX := (expanded.X1 + expanded.X2) / 2
		centerY := (expanded.Y1 + expanded.Y2) / 2

		// shrinking to the shorter side stays within the clipped extent
		expanded = Box{
			X1: centerX - side/2,
			Y1: centerY - side/2,
			X2: centerX - side/2 + side,
			Y2: centerY - side/2 + side,
		}
	}

	return expanded
}

// SmoothWith linearly interpolates the box towards other, returning
// alpha*other + (1-alpha)*b per corner, truncated to integers.  Alpha is the
// weight given to other, so passing the previous frame's box as other with a
// higher alpha yields heavier temporal smoothing.  When both inputs are
// square and integer truncation broke squareness, the result is re-centered
// with the larger side forced onto both dimensions.
func (b Box) SmoothWith(other Box, alpha float64) Box {

	smoothed := Box{
		X1: int(alpha*float64(other.X1) + (1-alpha)*float64(b.X1)),
		Y1: int(alpha*float64(other.Y1) + (1-alpha)*float64(b.Y1)),
		X2: int(alpha*float64(other.X2) + (1-alpha)*float64(b.X2)),
		Y2: int(alpha*float64(other.Y2) + (1-alpha)*float64(b.Y2)),
	}

	if b.IsSquare() && other.IsSquare() && !smoothed.IsSquare() {
		size := maxInt(smoothed.Width(), smoothed.Height())
		centerX := (smoothed.X1 + smoothed.X2) / 2
		centerY := (smoothed.Y1 + smoothed.Y2) / 2
		halfSize := size / 2

		smoothed = Box{
			X1: centerX - halfSize,
			Y1: centerY - halfSize,
			X2: centerX - halfSize + size,
			Y2: centerY - halfSize + size,
		}
	}

	return smoothed
}

// MakeSquareMultiple converts the box to a square sized as an integer
// multiple of imgsz:
//
//  1. take the larger side of the box
//  2. round to the nearest multiple of imgsz
//  3. clamp the multiple to [minMultiple, maxMultiple]
//  4. re-center the square on the original box center
//  5. shift the square back inside frame bounds
//
// The result is always within frame bounds.  Shifting keeps the square
// size exact at the cost of the centering near frame edges; only a square
// larger than the frame itself is clipped and loses squareness.
func (b Box) MakeSquareMultiple(imgsz, minMultiple, maxMultiple int, frame FrameShape) Box {

	maxSide := maxInt(b.Width(), b.Height())

	multiple := int(math.Round(float64(maxSide) / float64(imgsz)))
	multiple = maxInt(minMultiple, minInt(maxMultiple, multiple))

	squareSize := multiple * imgsz

	centerX := (b.X1 + b.X2) / 2
	centerY := (b.Y1 + b.Y2) / 2

	halfSize := squareSize / 2
	newX1 := centerX - halfSize
	newY1 := centerY - halfSize
	newX2 := newX1 + squareSize
	newY2 := newY1 + squareSize

	// shift back inside the frame rather than clip, preserving the square
	// multiple size near edges
	if newX1 < 0 {
		newX2 -= newX1
		newX1 = 0
	}
	if newX2 > frame.Width {
		newX1 -= newX2 - frame.Width
		newX2 = frame.Width
	}
	if newY1 < 0 {
		newY2 -= newY1
		newY1 = 0
	}
	if newY2 > frame.Height {
		newY1 -= newY2 - frame.Height
		newY2 = frame.Height
	}

	// a square larger than the frame still gets clipped
	return Box{
		X1: maxInt(0, newX1),
		Y1: maxInt(0, newY1),
		X2: minInt(frame.Width, newX2),
		Y2: minInt(frame.Height, newY2),
	}
}

// maxInt returns max between two numbers
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// minInt returns minimum between two numbers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
