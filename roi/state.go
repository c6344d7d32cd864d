package roi

import "github.com/visionrt/go-stabtrack/result"

// State is the per-source ROI tracking contract shared by the adaptive and
// fixed strategies.  The frame shape is part of every call so strategies
// that derive pixel coordinates from normalized bounds use one signature
// with the rest.
//
// Sources may run on separate workers, implementations guard their shared
// source tables.  The host runtime must still ensure each individual source
// is updated by exactly one worker at a time (partition by source ID), the
// usual discipline for per-frame inference callbacks.
type State interface {
	// ROI returns the crop box for the next frame of the given source.  The
	// second return is false when the full frame should be used.
	ROI(sourceID int, frame FrameShape) (Box, bool)

	// UpdateFromDetections folds the current frame's detections into the
	// source's ROI state, shaping the box used to crop the next frame.
	UpdateFromDetections(sourceID int, detections []result.Detection, frame FrameShape)

	// Reset clears one source's box back to full frame.
	Reset(sourceID int)

	// ResetAll clears every source's box back to full frame.
	ResetAll()

	// ImgSize returns the model input resolution the strategy targets, or 0
	// when the strategy has no size constraint.
	ImgSize() int

	// ResizeToModel reports whether crops smaller than the model input size
	// should be upscaled rather than padded by the inference step.
	ResizeToModel() bool
}

// disabledState is the ModeNone strategy, inference always runs on the full
// frame.
type disabledState struct{}

func (disabledState) ROI(int, FrameShape) (Box, bool) { return Box{}, false }

func (disabledState) UpdateFromDetections(int, []result.Detection, FrameShape) {}

func (disabledState) Reset(int) {}

func (disabledState) ResetAll() {}

func (disabledState) ImgSize() int { return 0 }

func (disabledState) ResizeToModel() bool { return false }
