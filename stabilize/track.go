// Package stabilize converts the noisy, flickering per-frame detections of a
// vision model into a temporally stable stream.  Tracks are matched frame to
// frame by spatial overlap, confirmed after a run of consecutive sightings,
// kept alive through short gaps, and only confirmed currently-visible tracks
// are emitted.
package stabilize

import (
	"gonum.org/v1/gonum/stat"

	"github.com/visionrt/go-stabtrack/result"
)

// confidenceHistorySize bounds the per-track confidence ring buffer
const confidenceHistorySize = 10

// Track is the persistent state for one physical object.
//
// Lifecycle:
//  1. tracking: recently detected, accumulating consecutive frames
//  2. confirmed: reached the consecutive-frame requirement, emitted while
//     visible.  Confirmed is monotonic, it never reverts
//  3. evicted: missed for more than the gap tolerance, dropped from the
//     live set
type Track struct {
	// ID is a unique ID assigned when the track is created
	ID int64
	// Class is the object class the track was created with
	Class string
	// Confidence and the box fields mirror the most recent matched detection
	Confidence float32
	X          float32
	Y          float32
	Width      float32
	Height     float32
	// ConsecutiveFrames counts the current uninterrupted sighting streak
	ConsecutiveFrames int
	// GapFrames counts consecutive frames without a qualifying match
	GapFrames int
	// Confirmed is set once ConsecutiveFrames reaches the minimum, and
	// stays set for the life of the track
	Confirmed bool

	// bounded ring of recent confidences
	confidences [confidenceHistorySize]float64
	confCount   int
	confNext    int
}

// newTrack creates a track from its first qualifying detection.
func newTrack(id int64, det result.Detection) *Track {
	t := &Track{
		ID:                id,
		Class:             det.Class,
		Confidence:        det.Confidence,
		X:                 det.X,
		Y:                 det.Y,
		Width:             det.Width,
		Height:            det.Height,
		ConsecutiveFrames: 1,
	}
	t.pushConfidence(det.Confidence)

	return t
}

// Update folds a matched detection into the track.
func (t *Track) Update(det result.Detection) {
	t.Confidence = det.Confidence
	t.X = det.X
	t.Y = det.Y
	t.Width = det.Width
	t.Height = det.Height
	t.ConsecutiveFrames++
	t.GapFrames = 0
	t.pushConfidence(det.Confidence)
}

// MarkMissed records a frame without a qualifying match.
func (t *Track) MarkMissed() {
	t.ConsecutiveFrames = 0
	t.GapFrames++
}

// pushConfidence appends to the bounded ring, overwriting the oldest entry
// once full.
func (t *Track) pushConfidence(c float32) {
	t.confidences[t.confNext] = float64(c)
	t.confNext = (t.confNext + 1) % confidenceHistorySize
	if t.confCount < confidenceHistorySize {
		t.confCount++
	}
}

// AvgConfidence returns the mean confidence over the track's recent history.
func (t *Track) AvgConfidence() float32 {
	if t.confCount == 0 {
		return t.Confidence
	}
	return float32(stat.Mean(t.confidences[:t.confCount], nil))
}

// Detection returns the track's latest state as an emitted detection with
// stabilization debug fields attached.
func (t *Track) Detection() result.Detection {
	return result.Detection{
		Class:      t.Class,
		Confidence: t.Confidence,
		X:          t.X,
		Y:          t.Y,
		Width:      t.Width,
		Height:     t.Height,
		ID:         t.ID,
		Track: &result.TrackInfo{
			AvgConfidence: t.AvgConfidence(),
			FramesTracked: t.ConsecutiveFrames,
		},
	}
}

// box returns the track's bounding box as a bare detection for scoring
func (t *Track) box() result.Detection {
	return result.Detection{
		Class:  t.Class,
		X:      t.X,
		Y:      t.Y,
		Width:  t.Width,
		Height: t.Height,
	}
}
