package measurement

import (
	"math"

	"holoscope/internal/models"
)

// Measurement is a particle together with its calibrated physical size.
type Measurement struct {
	Particle models.Particle

	// Area in squared physical units
	Area float64

	// EquivalentDiameter of the circle with the same area
	EquivalentDiameter float64

	// MajorAxis and MinorAxis in physical units
	MajorAxis float64
	MinorAxis float64
}

// Measure converts particle geometry with scale.
func Measure(particles []models.Particle, scale *Scale) ([]Measurement, error) {
	if scale == nil {
		return nil, models.ErrNoCalibrationSet
	}
	out := make([]Measurement, len(particles))
	for i, p := range particles {
		area, err := PhysicalArea(p.Area, scale)
		if err != nil {
			return nil, err
		}
		out[i] = Measurement{
			Particle:           p,
			Area:               area,
			EquivalentDiameter: 2 * math.Sqrt(float64(p.Area)/math.Pi) * scale.UnitsPerPixel,
			MajorAxis:          p.MajorAxis * scale.UnitsPerPixel,
			MinorAxis:          p.MinorAxis * scale.UnitsPerPixel,
		}
	}
	return out, nil
}
