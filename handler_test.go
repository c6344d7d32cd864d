package stabtrack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionrt/go-stabtrack/result"
	"github.com/visionrt/go-stabtrack/roi"
	"github.com/visionrt/go-stabtrack/stabilize"
)

var frame = roi.FrameShape{Height: 1080, Width: 1920}

func det(conf, cx, cy float32) result.Detection {
	return result.Detection{
		Class:      "person",
		Confidence: conf,
		X:          cx,
		Y:          cy,
		Width:      200,
		Height:     150,
	}
}

func TestNewHandlerValidatesConfig(t *testing.T) {

	_, err := NewHandler(DefaultConfig(), nil)
	require.NoError(t, err)

	bad := DefaultConfig()
	bad.ROI.Adaptive.ImgSize = 100

	_, err = NewHandler(bad, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROI")

	bad = DefaultConfig()
	bad.Stabilization.MinFrames = 0

	_, err = NewHandler(bad, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stabilizer")
}

func TestProcessFrameFeedsROIFromRawDetections(t *testing.T) {

	h, err := NewHandler(DefaultConfig(), nil)
	require.NoError(t, err)

	// below MinFrames the detection is suppressed, but the raw detection
	// still drives the crop of the next frame
	res, err := h.ProcessFrame(1, frame, []result.Detection{det(0.8, 400, 300)})
	require.NoError(t, err)

	assert.Empty(t, res.Detections)
	require.NotNil(t, res.NextROI)
	assert.True(t, res.NextROI.IsSquare())
	assert.True(t, res.Metrics.CropApplied)
	assert.Less(t, res.Metrics.CropRatio, 1.0)

	box, ok := h.ROI(1, frame)
	require.True(t, ok)
	assert.Equal(t, *res.NextROI, box)
}

func TestProcessFrameConfirmsOverTime(t *testing.T) {

	h, err := NewHandler(DefaultConfig(), nil)
	require.NoError(t, err)

	var res FrameResult

	for i := 0; i < 3; i++ {
		var err error
		res, err = h.ProcessFrame(1, frame, []result.Detection{det(0.8, 400, 300)})
		require.NoError(t, err)
	}

	require.Len(t, res.Detections, 1)
	assert.NotZero(t, res.Detections[0].ID)

	stats := h.Stats(1)
	assert.Equal(t, 3, stats.TotalDetected)
	assert.Equal(t, 1, stats.TotalConfirmed)
}

func TestProcessFrameEmptyFrameDropsROI(t *testing.T) {

	h, err := NewHandler(DefaultConfig(), nil)
	require.NoError(t, err)

	res, err := h.ProcessFrame(1, frame, []result.Detection{det(0.8, 400, 300)})
	require.NoError(t, err)
	require.NotNil(t, res.NextROI)

	// no detections returns the source to a full frame search
	res, err = h.ProcessFrame(1, frame, nil)
	require.NoError(t, err)

	assert.Nil(t, res.NextROI)
	assert.False(t, res.Metrics.CropApplied)
	assert.Equal(t, 1.0, res.Metrics.CropRatio)
}

func TestProcessFrameRejectsMalformedInput(t *testing.T) {

	h, err := NewHandler(DefaultConfig(), nil)
	require.NoError(t, err)

	bad := det(0.8, 400, 300)
	bad.Class = ""

	_, err = h.ProcessFrame(1, frame, []result.Detection{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source 1")
}

func TestDisableROIResetsState(t *testing.T) {

	h, err := NewHandler(DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = h.ProcessFrame(1, frame, []result.Detection{det(0.8, 400, 300)})
	require.NoError(t, err)

	h.DisableROI()
	assert.False(t, h.ROIEnabled())

	if _, ok := h.ROI(1, frame); ok {
		t.Error("ROI still reported while disabled")
	}

	res, err := h.ProcessFrame(1, frame, []result.Detection{det(0.8, 400, 300)})
	require.NoError(t, err)
	assert.Nil(t, res.NextROI)
	assert.False(t, res.Metrics.CropApplied)

	// re-enabling starts from full frame, the old box was forgotten
	h.EnableROI()
	assert.True(t, h.ROIEnabled())

	if _, ok := h.ROI(1, frame); ok {
		t.Error("stale ROI survived the disable/enable cycle")
	}
}

func TestResetForgetsBothEngines(t *testing.T) {

	h, err := NewHandler(DefaultConfig(), nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = h.ProcessFrame(1, frame, []result.Detection{det(0.8, 400, 300)})
		require.NoError(t, err)
		_, err = h.ProcessFrame(2, frame, []result.Detection{det(0.8, 400, 300)})
		require.NoError(t, err)
	}

	h.Reset(1)

	assert.Equal(t, 0, h.Stats(1).ActiveTracks)
	assert.Equal(t, 1, h.Stats(2).ActiveTracks)

	if _, ok := h.ROI(1, frame); ok {
		t.Error("source 1 ROI survived Reset")
	}
	if _, ok := h.ROI(2, frame); !ok {
		t.Error("source 2 ROI lost to Reset of source 1")
	}

	h.ResetAll()
	assert.Equal(t, 0, h.Stats(2).ActiveTracks)
}

func TestHandlerModeNoneIsPassive(t *testing.T) {

	cfg := Config{
		ROI:           roi.Config{Mode: roi.ModeNone},
		Stabilization: stabilize.Config{Mode: stabilize.ModeNone},
	}

	h, err := NewHandler(cfg, nil)
	require.NoError(t, err)

	dets := []result.Detection{det(0.1, 400, 300)}

	res, err := h.ProcessFrame(1, frame, dets)
	require.NoError(t, err)

	assert.Equal(t, dets, res.Detections)
	assert.Nil(t, res.NextROI)
	assert.False(t, res.Metrics.CropApplied)
}

func TestNewCropperUsesROISettings(t *testing.T) {

	cfg := DefaultConfig()
	cfg.ROI.Adaptive.ImgSize = 640
	cfg.ROI.Adaptive.ResizeToModel = true

	h, err := NewHandler(cfg, nil)
	require.NoError(t, err)

	c := h.NewCropper()
	require.NotNil(t, c)
}
