package stabilize

import (
	"fmt"

	"go.uber.org/zap"
)

// Mode selects the stabilization strategy.
type Mode string

const (
	// ModeNone passes detections through unmodified, the baseline
	ModeNone Mode = "none"
	// ModeTemporal applies temporal filtering with confidence hysteresis
	ModeTemporal Mode = "temporal"
)

// Config holds the validated stabilization parameters.
type Config struct {
	Mode Mode
	// MinFrames is the consecutive-sighting requirement before a track is
	// confirmed
	MinFrames int
	// MaxGap is the number of consecutive missed frames tolerated before a
	// track is evicted
	MaxGap int
	// AppearConf is the confidence required to start tracking an object
	AppearConf float32
	// PersistConf is the lower confidence required to keep tracking a
	// confirmed object (hysteresis)
	PersistConf float32
	// IoUThreshold is the minimum overlap for the spatial matching strategy
	IoUThreshold float32
}

// DefaultConfig returns the temporal strategy defaults.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeTemporal,
		MinFrames:    3,
		MaxGap:       2,
		AppearConf:   0.5,
		PersistConf:  0.3,
		IoUThreshold: 0.3,
	}
}

// Validate rejects malformed parameters with a descriptive error, never
// silently clamps.
func (c Config) Validate() error {
	if c.Mode != ModeNone && c.Mode != ModeTemporal {
		return fmt.Errorf("invalid stabilization mode %q, supported: none, temporal", c.Mode)
	}

	if c.Mode == ModeNone {
		return nil
	}

	if c.MinFrames < 1 {
		return fmt.Errorf("min frames must be >= 1, got %d", c.MinFrames)
	}

	if c.MaxGap < 0 {
		return fmt.Errorf("max gap must be >= 0, got %d", c.MaxGap)
	}

	if c.AppearConf < 0 || c.AppearConf > 1 {
		return fmt.Errorf("appear confidence must be in [0,1], got %f", c.AppearConf)
	}

	if c.PersistConf < 0 || c.PersistConf > 1 {
		return fmt.Errorf("persist confidence must be in [0,1], got %f", c.PersistConf)
	}

	if c.PersistConf > c.AppearConf {
		return fmt.Errorf("persist confidence (%f) must be <= appear confidence (%f)",
			c.PersistConf, c.AppearConf)
	}

	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return fmt.Errorf("IoU threshold must be in [0,1], got %f", c.IoUThreshold)
	}

	return nil
}

// New validates the configuration and builds the stabilizer for the
// configured mode.  The logger may be nil for a silent engine.
func New(cfg Config, log *zap.Logger) (Stabilizer, error) {

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stabilization config: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	switch cfg.Mode {
	case ModeNone:
		return NoOp{}, nil

	case ModeTemporal:
		return NewTemporalHysteresis(cfg, log), nil
	}

	// unreachable after Validate
	return nil, fmt.Errorf("unhandled stabilization mode %q", cfg.Mode)
}
