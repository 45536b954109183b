package measurement

import (
	"fmt"
	"math"

	"holoscope/internal/models"
)

// Scale is the physical length represented by one pixel. The unit is that of
// the reference distance it was calibrated from (meters inside the core).
type Scale struct {
	UnitsPerPixel float64
}

// Calibrate derives a scale from a reference line drawn between a and b whose
// true length is known. Coincident endpoints fail with ErrDegenerateLine.
func Calibrate(a, b models.Point, known float64) (Scale, error) {
	if math.IsNaN(known) || math.IsInf(known, 0) || known <= 0 {
		return Scale{}, fmt.Errorf("reference distance %g must be positive: %w", known, models.ErrInvalidReferenceDistance)
	}
	px := a.Dist(b)
	if px == 0 || math.IsNaN(px) {
		return Scale{}, fmt.Errorf("endpoints (%g,%g) and (%g,%g): %w", a.X, a.Y, b.X, b.Y, models.ErrDegenerateLine)
	}
	return Scale{UnitsPerPixel: known / px}, nil
}

// ToPhysicalLength converts a pixel length with scale. A nil scale means no
// calibration has been made and fails with ErrNoCalibrationSet.
func ToPhysicalLength(pixels float64, scale *Scale) (float64, error) {
	if scale == nil {
		return 0, models.ErrNoCalibrationSet
	}
	if math.IsNaN(pixels) || pixels < 0 {
		return 0, fmt.Errorf("pixel length %g must be non-negative: %w", pixels, models.ErrInvalidField)
	}
	return pixels * scale.UnitsPerPixel, nil
}

// PhysicalArea converts a pixel count to a physical area.
func PhysicalArea(pixels int, scale *Scale) (float64, error) {
	if scale == nil {
		return 0, models.ErrNoCalibrationSet
	}
	return float64(pixels) * scale.UnitsPerPixel * scale.UnitsPerPixel, nil
}

// LineSource supplies the two endpoints of a line, typically by waiting for
// the user to click twice on a rendered image. It may block.
type LineSource func() (a, b models.Point, err error)

// Calibrator holds the active scale of an analysis session. It is valid until
// recalibrated or reset. A Calibrator is not safe for concurrent use.
type Calibrator struct {
	scale *Scale
}

// Calibrate sets the active scale from a reference line of known length.
// On failure the previous scale, if any, is kept.
func (c *Calibrator) Calibrate(a, b models.Point, known float64) (Scale, error) {
	s, err := Calibrate(a, b, known)
	if err != nil {
		return Scale{}, err
	}
	c.scale = &s
	return s, nil
}

// CalibrateFrom asks src for the reference line endpoints and calibrates.
func (c *Calibrator) CalibrateFrom(src LineSource, known float64) (Scale, error) {
	a, b, err := src()
	if err != nil {
		return Scale{}, fmt.Errorf("reading reference line: %w", err)
	}
	return c.Calibrate(a, b, known)
}

// Scale returns the active scale, or nil before the first calibration.
func (c *Calibrator) Scale() *Scale {
	if c.scale == nil {
		return nil
	}
	s := *c.scale
	return &s
}

// Reset discards the active scale.
func (c *Calibrator) Reset() {
	c.scale = nil
}

// Length converts a pixel length using the active scale.
func (c *Calibrator) Length(pixels float64) (float64, error) {
	return ToPhysicalLength(pixels, c.scale)
}

// MeasureFrom asks src for a line and returns its pixel and physical lengths.
func (c *Calibrator) MeasureFrom(src LineSource) (pixels, physical float64, err error) {
	if c.scale == nil {
		return 0, 0, models.ErrNoCalibrationSet
	}
	a, b, err := src()
	if err != nil {
		return 0, 0, fmt.Errorf("reading measurement line: %w", err)
	}
	pixels = a.Dist(b)
	physical, err = c.Length(pixels)
	return pixels, physical, err
}
