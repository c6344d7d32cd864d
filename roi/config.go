package roi

import (
	"fmt"

	"go.uber.org/zap"
)

// Mode selects the ROI strategy applied by the engine.
type Mode string

const (
	// ModeNone disables ROI tracking, inference always sees the full frame
	ModeNone Mode = "none"
	// ModeAdaptive derives the crop box from recent detections
	ModeAdaptive Mode = "adaptive"
	// ModeFixed uses static normalized bounds supplied by configuration
	ModeFixed Mode = "fixed"
)

// AdaptiveConfig holds the validated parameters of the adaptive ROI
// strategy.  Values arrive from an external configuration loader, the
// engine only rejects them, never silently clamps.
type AdaptiveConfig struct {
	// Margin is the expansion fraction applied around detections
	Margin float64
	// SmoothingAlpha is the temporal smoothing factor, the weight given to
	// the previous frame's box (0 = no smoothing, 1 = box never moves)
	SmoothingAlpha float64
	// MinROISize is the minimum ROI area as a fraction of the frame area,
	// smaller candidates fall back to the full frame
	MinROISize float64
	// ImgSize is the model input resolution, eg 320 or 640
	ImgSize int
	// MinMultiple is the smallest allowed ROI size in multiples of ImgSize
	MinMultiple int
	// MaxMultiple is the largest allowed ROI size in multiples of ImgSize
	MaxMultiple int
	// ResizeToModel upscales crops smaller than ImgSize instead of leaving
	// padding to the inference step
	ResizeToModel bool
}

// DefaultAdaptiveConfig returns the adaptive strategy defaults.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Margin:         0.2,
		SmoothingAlpha: 0.3,
		MinROISize:     0.3,
		ImgSize:        320,
		MinMultiple:    1,
		MaxMultiple:    4,
	}
}

// Validate rejects malformed adaptive parameters with a descriptive error.
func (c AdaptiveConfig) Validate() error {
	if c.Margin < 0 || c.Margin > 1 {
		return fmt.Errorf("margin must be in [0,1], got %f", c.Margin)
	}

	if c.SmoothingAlpha < 0 || c.SmoothingAlpha > 1 {
		return fmt.Errorf("smoothing alpha must be in [0,1], got %f", c.SmoothingAlpha)
	}

	if c.MinROISize < 0 || c.MinROISize > 1 {
		return fmt.Errorf("min ROI size must be in [0,1], got %f", c.MinROISize)
	}

	if c.ImgSize <= 0 || c.ImgSize%32 != 0 {
		return fmt.Errorf("image size must be a positive multiple of 32, got %d", c.ImgSize)
	}

	if c.MinMultiple < 1 {
		return fmt.Errorf("min multiple must be >= 1, got %d", c.MinMultiple)
	}

	if c.MinMultiple > c.MaxMultiple {
		return fmt.Errorf("min multiple (%d) must be <= max multiple (%d)",
			c.MinMultiple, c.MaxMultiple)
	}

	return nil
}

// FixedConfig holds the normalized bounds of the fixed ROI strategy.
type FixedConfig struct {
	// XMin, YMin are the normalized top-left coordinates in [0,1]
	XMin float64
	YMin float64
	// XMax, YMax are the normalized bottom-right coordinates in [0,1]
	XMax float64
	YMax float64
	// ResizeToModel upscales crops smaller than the model input size
	ResizeToModel bool
}

// Validate rejects malformed fixed bounds with a descriptive error.
func (c FixedConfig) Validate() error {
	if !(0 <= c.XMin && c.XMin < c.XMax && c.XMax <= 1) {
		return fmt.Errorf("invalid fixed ROI x bounds: x_min=%f, x_max=%f", c.XMin, c.XMax)
	}

	if !(0 <= c.YMin && c.YMin < c.YMax && c.YMax <= 1) {
		return fmt.Errorf("invalid fixed ROI y bounds: y_min=%f, y_max=%f", c.YMin, c.YMax)
	}

	return nil
}

// Config selects and parameterizes an ROI strategy.
type Config struct {
	Mode     Mode
	Adaptive AdaptiveConfig
	Fixed    FixedConfig
}

// New builds the ROI state for the configured mode.  The logger may be nil
// for a silent engine.
func New(cfg Config, log *zap.Logger) (State, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Mode {
	case ModeNone:
		return disabledState{}, nil

	case ModeAdaptive:
		if err := cfg.Adaptive.Validate(); err != nil {
			return nil, fmt.Errorf("adaptive ROI config: %w", err)
		}
		return NewAdaptiveState(cfg.Adaptive, log), nil

	case ModeFixed:
		if err := cfg.Fixed.Validate(); err != nil {
			return nil, fmt.Errorf("fixed ROI config: %w", err)
		}
		return NewFixedState(cfg.Fixed, log), nil
	}

	return nil, fmt.Errorf("unknown ROI mode %q", cfg.Mode)
}
