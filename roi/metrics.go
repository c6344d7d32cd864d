package roi

// Metrics is the per-frame ROI observability record.  It is plain data,
// forwarded verbatim by whatever telemetry publisher the host process wires
// up.
type Metrics struct {
	// CropApplied reports whether a crop box was in effect this frame
	CropApplied bool
	// Box is the crop box, zero when CropApplied is false
	Box Box
	// CropRatio is ROI area over frame area, 1.0 for full frame
	CropRatio float64
	// PixelReduction is 1 - CropRatio, the share of pixels skipped
	PixelReduction float64
	// SizeMultiple is the box size in multiples of the model input
	// resolution, 0 for full frame
	SizeMultiple float64
	// ImgSize is the model input resolution used for sizing
	ImgSize int
	// Frame is the full frame shape
	Frame FrameShape
}

// ComputeMetrics builds the observability record for a frame.  A nil box
// means the full frame was used.
func ComputeMetrics(box *Box, imgsz int, frame FrameShape) Metrics {

	if box == nil {
		return Metrics{
			CropRatio: 1.0,
			ImgSize:   imgsz,
			Frame:     frame,
		}
	}

	ratio := box.CropRatio(frame)

	return Metrics{
		CropApplied:    true,
		Box:            *box,
		CropRatio:      ratio,
		PixelReduction: 1.0 - ratio,
		SizeMultiple:   box.SizeMultiple(imgsz),
		ImgSize:        imgsz,
		Frame:          frame,
	}
}
