package stabtrack

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/visionrt/go-stabtrack/preprocess"
	"github.com/visionrt/go-stabtrack/result"
	"github.com/visionrt/go-stabtrack/roi"
	"github.com/visionrt/go-stabtrack/stabilize"
)

// Config aggregates the engine configurations.  All parameters are
// validated at construction with descriptive errors, never silently
// clamped.
type Config struct {
	ROI           roi.Config
	Stabilization stabilize.Config
}

// DefaultConfig returns adaptive ROI tracking plus temporal stabilization
// with the engine defaults.
func DefaultConfig() Config {
	return Config{
		ROI: roi.Config{
			Mode:     roi.ModeAdaptive,
			Adaptive: roi.DefaultAdaptiveConfig(),
		},
		Stabilization: stabilize.DefaultConfig(),
	}
}

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	// Detections is the stabilized detection list for downstream sinks
	Detections []result.Detection
	// NextROI is the crop box to apply to the source's next frame, nil for
	// full frame
	NextROI *roi.Box
	// Metrics is the ROI observability record for this frame, forwarded
	// verbatim by the host's telemetry publisher
	Metrics roi.Metrics
}

// Handler is the per-frame entry point for the host inference runtime.  It
// owns the ROI state and the stabilizer and coordinates their updates.
//
// Sources may be processed on separate workers, the engines guard their
// shared source tables.  The host must still call ProcessFrame for a given
// source from one worker at a time.  Enable/Disable are safe to call from
// another goroutine, eg a control plane reacting to operator commands.
type Handler struct {
	roiState   roi.State
	stabilizer stabilize.Stabilizer
	log        *zap.Logger
	roiEnabled atomic.Bool
}

// NewHandler validates the configuration and builds a Handler.  The logger
// may be nil for a silent handler.
func NewHandler(cfg Config, log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	roiState, err := roi.New(cfg.ROI, log)
	if err != nil {
		return nil, fmt.Errorf("building ROI state: %w", err)
	}

	stabilizer, err := stabilize.New(cfg.Stabilization, log)
	if err != nil {
		return nil, fmt.Errorf("building stabilizer: %w", err)
	}

	h := &Handler{
		roiState:   roiState,
		stabilizer: stabilizer,
		log:        log,
	}
	h.roiEnabled.Store(true)

	return h, nil
}

// ProcessFrame runs one frame's raw detections through both engines.  The
// ROI update feeds back into the crop of the source's *next* frame and is
// independent of stabilization: raw detections drive it, so a flickering
// object still holds the ROI even while stabilization suppresses it.
func (h *Handler) ProcessFrame(sourceID int, frame roi.FrameShape, detections []result.Detection) (FrameResult, error) {

	stabilized, err := h.stabilizer.Process(detections, sourceID)
	if err != nil {
		return FrameResult{}, fmt.Errorf("stabilizing source %d: %w", sourceID, err)
	}

	res := FrameResult{Detections: stabilized}

	if h.roiEnabled.Load() {
		h.roiState.UpdateFromDetections(sourceID, detections, frame)

		if box, ok := h.roiState.ROI(sourceID, frame); ok {
			res.NextROI = &box
		}
	}

	res.Metrics = roi.ComputeMetrics(res.NextROI, h.roiState.ImgSize(), frame)

	return res, nil
}

// ROI returns the crop box to apply to the source's next frame, or false
// for full frame.  Exposed for hosts that crop and infer separately from
// ProcessFrame.
func (h *Handler) ROI(sourceID int, frame roi.FrameShape) (roi.Box, bool) {
	if !h.roiEnabled.Load() {
		return roi.Box{}, false
	}
	return h.roiState.ROI(sourceID, frame)
}

// NewCropper returns a Cropper configured for the handler's ROI strategy,
// one per pipeline worker.
func (h *Handler) NewCropper() *preprocess.Cropper {
	return preprocess.NewCropper(h.roiState.ImgSize(), h.roiState.ResizeToModel(), h.log)
}

// EnableROI re-enables ROI tracking after a Disable.
func (h *Handler) EnableROI() {
	h.roiEnabled.Store(true)
	h.log.Info("adaptive ROI enabled")
}

// DisableROI turns ROI tracking off and resets its state so every source
// falls back to full frame.
func (h *Handler) DisableROI() {
	h.roiEnabled.Store(false)
	h.roiState.ResetAll()
	h.log.Info("adaptive ROI disabled, reset to full frame")
}

// ROIEnabled reports whether ROI tracking is active.
func (h *Handler) ROIEnabled() bool {
	return h.roiEnabled.Load()
}

// Reset forgets one source's state in both engines, the operator "forget"
// primitive for a scene change.
func (h *Handler) Reset(sourceID int) {
	h.roiState.Reset(sourceID)
	h.stabilizer.Reset(sourceID)
}

// ResetAll forgets every source's state in both engines.
func (h *Handler) ResetAll() {
	h.roiState.ResetAll()
	h.stabilizer.ResetAll()
}

// Stats returns the stabilization counters for a source.
func (h *Handler) Stats(sourceID int) stabilize.Stats {
	return h.stabilizer.Stats(sourceID)
}
