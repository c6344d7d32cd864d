package roi

import (
	"sync"

	"go.uber.org/zap"

	"github.com/visionrt/go-stabtrack/result"
)

// FixedState is the static ROI strategy.  The box is defined by normalized
// bounds from configuration and never moves, detections do not influence it.
// All sources share the same bounds.
type FixedState struct {
	cfg FixedConfig
	log *zap.Logger

	// mu guards the cache so sources can resolve boxes on separate workers
	mu sync.Mutex
	// cache of pixel boxes keyed by frame shape, streams rarely change size
	cache map[FrameShape]Box
}

// NewFixedState returns fixed ROI state from validated normalized bounds.
func NewFixedState(cfg FixedConfig, log *zap.Logger) *FixedState {
	if log == nil {
		log = zap.NewNop()
	}

	return &FixedState{
		cfg:   cfg,
		log:   log,
		cache: make(map[FrameShape]Box),
	}
}

// ROI scales the normalized bounds to the given frame shape.
func (s *FixedState) ROI(sourceID int, frame FrameShape) (Box, bool) {

	if frame.Width <= 0 || frame.Height <= 0 {
		return Box{}, false
	}

	s.mu.Lock()
	if box, ok := s.cache[frame]; ok {
		s.mu.Unlock()
		return box, true
	}

	box := Box{
		X1: int(s.cfg.XMin * float64(frame.Width)),
		Y1: int(s.cfg.YMin * float64(frame.Height)),
		X2: int(s.cfg.XMax * float64(frame.Width)),
		Y2: int(s.cfg.YMax * float64(frame.Height)),
	}

	s.cache[frame] = box
	s.mu.Unlock()

	s.log.Debug("fixed ROI resolved",
		zap.Int("frame_width", frame.Width),
		zap.Int("frame_height", frame.Height),
		zap.Int("x1", box.X1), zap.Int("y1", box.Y1),
		zap.Int("x2", box.X2), zap.Int("y2", box.Y2))

	return box, true
}

// UpdateFromDetections is a no-op, fixed bounds do not follow detections.
func (s *FixedState) UpdateFromDetections(int, []result.Detection, FrameShape) {}

// Reset is a no-op for immutable bounds.
func (s *FixedState) Reset(int) {}

// ResetAll is a no-op for immutable bounds.
func (s *FixedState) ResetAll() {}

// ImgSize returns 0, the fixed strategy has no size constraint.
func (s *FixedState) ImgSize() int {
	return 0
}

// ResizeToModel reports whether small crops should be upscaled to the model
// input size.
func (s *FixedState) ResizeToModel() bool {
	return s.cfg.ResizeToModel
}
