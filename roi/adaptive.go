package roi

import (
	"sync"

	"go.uber.org/zap"

	"github.com/visionrt/go-stabtrack/result"
)

// AdaptiveState tracks one ROI box per video source, derived from the
// detections of each processed frame.
//
// Strategy per update:
//  1. compute the box enclosing all detections
//  2. convert it to a square in a multiple of the model input size
//  3. expand with the configured margin, preserving squareness
//  4. fall back to full frame if the result is too small a share of the frame
//  5. smooth temporally against the previous box for the source
type AdaptiveState struct {
	cfg AdaptiveConfig
	log *zap.Logger

	// mu guards roiBySource so sources can run on separate workers
	mu sync.Mutex
	// roiBySource maps source ID to the current box, nil meaning full frame
	roiBySource map[int]*Box
}

// NewAdaptiveState returns adaptive ROI tracking state using the given
// validated configuration.
func NewAdaptiveState(cfg AdaptiveConfig, log *zap.Logger) *AdaptiveState {
	if log == nil {
		log = zap.NewNop()
	}

	return &AdaptiveState{
		cfg:         cfg,
		log:         log,
		roiBySource: make(map[int]*Box),
	}
}

// ROI returns the current box for the source, or false to use the full
// frame.  The frame shape is unused by the adaptive strategy.
func (s *AdaptiveState) ROI(sourceID int, frame FrameShape) (Box, bool) {
	s.mu.Lock()
	box := s.roiBySource[sourceID]
	s.mu.Unlock()

	if box == nil {
		return Box{}, false
	}
	return *box, true
}

// UpdateFromDetections recomputes the source's box from the current frame's
// detections.  An empty detection list resets the source to full frame so
// the next frame searches the whole scene.
func (s *AdaptiveState) UpdateFromDetections(sourceID int, detections []result.Detection, frame FrameShape) {

	if len(detections) == 0 {
		s.setROI(sourceID, nil)
		return
	}

	// enclosing box over all detection corners
	x1, y1, x2, y2 := detections[0].Corners()

	for _, det := range detections[1:] {
		dx1, dy1, dx2, dy2 := det.Corners()
		x1 = min32(x1, dx1)
		y1 = min32(y1, dy1)
		x2 = max32(x2, dx2)
		y2 = max32(y2, dy2)
	}

	box := Box{X1: int(x1), Y1: int(y1), X2: int(x2), Y2: int(y2)}

	box = box.MakeSquareMultiple(s.cfg.ImgSize, s.cfg.MinMultiple, s.cfg.MaxMultiple, frame)

	box = box.Expand(s.cfg.Margin, frame, true)

	if !box.IsSquare() {
		// expected near frame edges where clipping shrinks one side
		s.log.Debug("ROI not square after expand",
			zap.Int("source_id", sourceID),
			zap.Int("width", box.Width()),
			zap.Int("height", box.Height()))
	}

	if float64(box.Area()) < s.cfg.MinROISize*float64(frame.Area()) {
		s.log.Debug("ROI below minimum size, using full frame",
			zap.Int("source_id", sourceID),
			zap.Int("roi_area", box.Area()),
			zap.Int("frame_area", frame.Area()))
		s.setROI(sourceID, nil)
		return
	}

	s.mu.Lock()
	if prev := s.roiBySource[sourceID]; prev != nil {
		box = box.SmoothWith(*prev, s.cfg.SmoothingAlpha)
	}
	s.roiBySource[sourceID] = &box
	s.mu.Unlock()

	s.log.Debug("ROI updated",
		zap.Int("source_id", sourceID),
		zap.Int("x1", box.X1), zap.Int("y1", box.Y1),
		zap.Int("x2", box.X2), zap.Int("y2", box.Y2))
}

// setROI stores the source's box under the table lock
func (s *AdaptiveState) setROI(sourceID int, box *Box) {
	s.mu.Lock()
	s.roiBySource[sourceID] = box
	s.mu.Unlock()
}

// Reset clears the source's box back to full frame.
func (s *AdaptiveState) Reset(sourceID int) {
	s.setROI(sourceID, nil)
	s.log.Info("ROI state reset", zap.Int("source_id", sourceID))
}

// ResetAll clears every source's box back to full frame.
func (s *AdaptiveState) ResetAll() {
	s.mu.Lock()
	s.roiBySource = make(map[int]*Box)
	s.mu.Unlock()

	s.log.Info("ROI state reset for all sources")
}

// ImgSize returns the model input resolution the boxes are sized against.
func (s *AdaptiveState) ImgSize() int {
	return s.cfg.ImgSize
}

// ResizeToModel reports whether small crops should be upscaled to the model
// input size.
func (s *AdaptiveState) ResizeToModel() bool {
	return s.cfg.ResizeToModel
}

// min32 returns minimum between two numbers
func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// max32 returns max between two numbers
func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
