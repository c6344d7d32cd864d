// Package preprocess applies an ROI box to a frame ahead of inference and
// maps detection coordinates from crop space back to full-frame space
// afterwards.
package preprocess

import (
	"errors"
	"image"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/visionrt/go-stabtrack/result"
	"github.com/visionrt/go-stabtrack/roi"
)

// Offset describes how a crop's coordinate space maps back onto the full
// frame: detections are first scaled down by ScaleX/ScaleY (when the crop
// was upscaled for inference) and then shifted by the crop's top-left
// corner.
type Offset struct {
	// X, Y is the crop's top-left corner in full frame pixels
	X int
	Y int
	// ScaleX, ScaleY are the upscale factors applied to the crop before
	// inference, 1 when the crop was passed through at native size
	ScaleX float32
	ScaleY float32
}

// Crop holds a possibly-cropped frame ready for inference.  When a box was
// applied the Mat is a zero-copy view of the source frame region, optionally
// upscaled to the model input size.  Close must be called after inference to
// release any Mats the crop owns, the source frame itself is never closed.
type Crop struct {
	mat       gocv.Mat
	region    gocv.Mat
	hasRegion bool
	resized   bool
	offset    *Offset
}

// Mat returns the frame to run inference on.
func (c *Crop) Mat() gocv.Mat {
	return c.mat
}

// Offset returns the crop's coordinate mapping, or nil when the full frame
// was used.
func (c *Crop) Offset() *Offset {
	return c.offset
}

// Close releases the Mats owned by the crop
func (c *Crop) Close() error {
	var err, err2 error

	if c.hasRegion {
		err = c.region.Close()
	}

	if c.resized {
		err2 = c.mat.Close()
	}

	return errors.Join(err, err2)
}

// Cropper produces inference crops from ROI boxes.  One Cropper is intended
// per pipeline worker, mirroring the single-writer-per-source contract of
// the ROI state.
type Cropper struct {
	// modelSize is the model input resolution crops may be upscaled to
	modelSize int
	// resizeToModel enables upscaling of crops smaller than modelSize
	resizeToModel bool
	log           *zap.Logger
	// sources that already logged their first upscale, to avoid log spam
	resizeLogged map[int]bool
	sync.Mutex
}

// NewCropper returns a Cropper.  With resizeToModel set, crops smaller than
// modelSize are upscaled to modelSize square, otherwise crops keep their
// native size and the inference step is responsible for padding.
func NewCropper(modelSize int, resizeToModel bool, log *zap.Logger) *Cropper {
	if log == nil {
		log = zap.NewNop()
	}

	return &Cropper{
		modelSize:     modelSize,
		resizeToModel: resizeToModel,
		log:           log,
		resizeLogged:  make(map[int]bool),
	}
}

// CropIfROI applies the box to the frame.  A nil box returns the frame
// unchanged with a nil offset.  A degenerate or empty region falls back to
// the full frame, never an empty image.
func (c *Cropper) CropIfROI(frame gocv.Mat, box *roi.Box, sourceID int) *Crop {

	if box == nil {
		return &Crop{mat: frame}
	}

	if box.Width() <= 0 || box.Height() <= 0 {
		c.log.Warn("empty ROI crop, using full frame",
			zap.Int("source_id", sourceID),
			zap.Int("x1", box.X1), zap.Int("y1", box.Y1),
			zap.Int("x2", box.X2), zap.Int("y2", box.Y2))
		return &Crop{mat: frame}
	}

	// zero-copy view of the frame region
	region := frame.Region(image.Rect(box.X1, box.Y1, box.X2, box.Y2))

	if region.Empty() {
		region.Close()
		c.log.Warn("empty ROI crop, using full frame",
			zap.Int("source_id", sourceID))
		return &Crop{mat: frame}
	}

	crop := &Crop{
		mat:       region,
		region:    region,
		hasRegion: true,
		offset:    &Offset{X: box.X1, Y: box.Y1, ScaleX: 1, ScaleY: 1},
	}

	if !c.resizeToModel || c.modelSize <= 0 {
		return crop
	}

	if maxDim(region.Rows(), region.Cols()) >= c.modelSize {
		return crop
	}

	// zoom: upscale the region to the model input size so small objects
	// keep enough pixels for detection
	dest := gocv.NewMat()
	gocv.Resize(region, &dest, image.Pt(c.modelSize, c.modelSize),
		0, 0, gocv.InterpolationLinear)

	crop.offset.ScaleX = float32(c.modelSize) / float32(region.Cols())
	crop.offset.ScaleY = float32(c.modelSize) / float32(region.Rows())
	crop.mat = dest
	crop.resized = true

	c.logResizeOnce(sourceID, region.Cols(), region.Rows())

	return crop
}

// logResizeOnce logs the first upscale for each source
func (c *Cropper) logResizeOnce(sourceID, width, height int) {
	c.Lock()
	defer c.Unlock()

	if c.resizeLogged[sourceID] {
		return
	}
	c.resizeLogged[sourceID] = true

	c.log.Info("ROI upscaled to model size",
		zap.Int("source_id", sourceID),
		zap.Int("roi_width", width),
		zap.Int("roi_height", height),
		zap.Int("model_size", c.modelSize))
}

// TransformDetections maps detections from crop space back to full-frame
// space.  A nil offset is a no-op, so repeated calls on uncropped results
// are idempotent.  Class and confidence are never altered.
func TransformDetections(detections []result.Detection, offset *Offset) []result.Detection {

	if offset == nil || len(detections) == 0 {
		return detections
	}

	out := make([]result.Detection, len(detections))

	for i, det := range detections {
		det.X = det.X/offset.ScaleX + float32(offset.X)
		det.Y = det.Y/offset.ScaleY + float32(offset.Y)
		det.Width = det.Width / offset.ScaleX
		det.Height = det.Height / offset.ScaleY
		out[i] = det
	}

	return out
}

// maxDim returns max between two numbers
func maxDim(a, b int) int {
	if a > b {
		return a
	}
	return b
}
