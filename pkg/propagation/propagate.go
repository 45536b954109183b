// Package propagation implements free-space scalar diffraction of a recorded
// hologram field to a given axial distance.
//
// Two interchangeable propagators are provided and selected with a Method
// value: the single-FFT Fresnel transform and the angular-spectrum method.
// All lengths are in meters.
package propagation

import (
	"fmt"
	"math"
	"strings"

	"holoscope/internal/models"
)

// Method selects the diffraction algorithm.
type Method int

const (
	// Fresnel multiplies the field by a quadratic-phase kernel and takes a
	// single 2D FFT. Paraxial; suited to moderate and far distances.
	Fresnel Method = iota

	// AngularSpectrum multiplies the field spectrum by the exact free-space
	// transfer function. Remains valid at short distances.
	AngularSpectrum
)

func (m Method) String() string {
	switch m {
	case Fresnel:
		return "fresnel"
	case AngularSpectrum:
		return "angular_spectrum"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a configuration name to a Method.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fresnel":
		return Fresnel, nil
	case "angular_spectrum", "angular-spectrum", "angularspectrum", "as":
		return AngularSpectrum, nil
	}
	return 0, fmt.Errorf("unknown propagation method %q: %w", name, models.ErrInvalidPropagationParameters)
}

// SnapThreshold is the magnitude below which samples are set to exactly zero
// before a forward transform, so the FFT does not amplify rounding noise.
const SnapThreshold = 1e-10

// Params holds the physical parameters of a reconstruction, in meters.
type Params struct {
	// PixelPitch is the sensor pixel spacing along x
	PixelPitch float64

	// PixelPitchY is the spacing along y. Zero means the sensor is isotropic
	// and PixelPitch applies to both axes.
	PixelPitchY float64

	// Wavelength of the illumination
	Wavelength float64

	// Distance is the axial reconstruction distance. Zero is the identity.
	Distance float64
}

// Pitch returns the pixel spacing along x and y.
func (p Params) Pitch() (dx, dy float64) {
	dy = p.PixelPitchY
	if dy == 0 {
		dy = p.PixelPitch
	}
	return p.PixelPitch, dy
}

// Isotropic reports whether both axes share the same pixel pitch.
func (p Params) Isotropic() bool {
	dx, dy := p.Pitch()
	return dx == dy
}

// Validate checks that all parameters are finite and physically meaningful.
func (p Params) Validate() error {
	dx, dy := p.Pitch()
	switch {
	case !positive(dx) || !positive(dy):
		return fmt.Errorf("pixel pitch %g x %g m must be positive: %w", dx, dy, models.ErrInvalidPropagationParameters)
	case !positive(p.Wavelength):
		return fmt.Errorf("wavelength %g m must be positive: %w", p.Wavelength, models.ErrInvalidPropagationParameters)
	case math.IsNaN(p.Distance) || math.IsInf(p.Distance, 0) || p.Distance < 0:
		return fmt.Errorf("distance %g m must be finite and non-negative: %w", p.Distance, models.ErrInvalidPropagationParameters)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Propagate diffracts field over params.Distance using method and returns a
// new complex field of the same shape. The input is not modified.
//
// The field must be square. Fresnel additionally requires isotropic pixels.
// At zero distance both methods return a copy of the input.
//
// Parameters:
//   - field: square complex hologram field, row-major
//   - params: pixel pitch, wavelength and distance in meters
//   - method: Fresnel or AngularSpectrum
//
// Returns:
//   - The field at the reconstruction plane, or an error wrapping
//     ErrInvalidPropagationParameters
func Propagate(field *models.ComplexField, params Params, method Method) (*models.ComplexField, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("propagation input is empty or malformed: %w", models.ErrInvalidPropagationParameters)
	}
	if !field.Square() {
		return nil, fmt.Errorf("propagation input is %dx%d, must be square: %w",
			field.Width, field.Height, models.ErrInvalidPropagationParameters)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	switch method {
	case Fresnel:
		if !params.Isotropic() {
			dx, dy := params.Pitch()
			return nil, fmt.Errorf("fresnel transform assumes isotropic pixels, got %g x %g m: %w",
				dx, dy, models.ErrInvalidPropagationParameters)
		}
		if params.Distance == 0 {
			return field.Clone(), nil
		}
		return fresnel(field, params), nil
	case AngularSpectrum:
		if params.Distance == 0 {
			return field.Clone(), nil
		}
		return angularSpectrum(field, params), nil
	default:
		return nil, fmt.Errorf("unknown method %v: %w", method, models.ErrInvalidPropagationParameters)
	}
}

// Promote converts a real field to a complex field with zero imaginary part.
// Display-clipped contrast is refused: clipping biases the spatial-frequency
// content that propagation depends on.
func Promote(field *models.Field) (*models.ComplexField, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("cannot promote empty or malformed field: %w", models.ErrInvalidField)
	}
	if field.Lossy {
		return nil, fmt.Errorf("cannot propagate a display-clipped field: %w", models.ErrInvalidField)
	}
	out := models.NewComplexField(field.Width, field.Height)
	for i, v := range field.Data {
		out.Data[i] = complex(v, 0)
	}
	return out, nil
}

// snap zeroes every sample whose magnitude is below SnapThreshold.
func snap(data []complex128) {
	for i, v := range data {
		if math.Hypot(real(v), imag(v)) < SnapThreshold {
			data[i] = 0
		}
	}
}
