// Package field extracts real-valued views from reconstructed complex fields.
package field

import (
	"fmt"
	"math"
	"math/cmplx"

	"holoscope/internal/models"
)

// Decompose returns the amplitude (modulus) and phase (argument) of c.
//
// Phase lies in (-π, π]. NaN and Inf samples propagate to both outputs;
// callers must check for them before thresholding.
func Decompose(c *models.ComplexField) (amplitude, phase *models.Field, err error) {
	if !c.Valid() {
		return nil, nil, fmt.Errorf("decompose input: %w", models.ErrInvalidField)
	}
	amplitude = models.NewField(c.Width, c.Height)
	phase = models.NewField(c.Width, c.Height)
	for i, v := range c.Data {
		amplitude.Data[i] = cmplx.Abs(v)
		p := cmplx.Phase(v)
		// atan2 returns -π for negative reals with a -0 imaginary part
		if p == -math.Pi {
			p = math.Pi
		}
		phase.Data[i] = p
	}
	return amplitude, phase, nil
}

// Intensity returns |c|², the quantity a camera at the reconstruction plane
// would record.
func Intensity(c *models.ComplexField) (*models.Field, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("intensity input: %w", models.ErrInvalidField)
	}
	out := models.NewField(c.Width, c.Height)
	for i, v := range c.Data {
		out.Data[i] = real(v)*real(v) + imag(v)*imag(v)
	}
	return out, nil
}

// CountNonFinite returns the number of NaN or infinite samples in f.
func CountNonFinite(f *models.Field) int {
	n := 0
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

// AllNonFinite reports whether f has no finite sample at all. An empty field
// counts as having none.
func AllNonFinite(f *models.Field) bool {
	return f == nil || CountNonFinite(f) == len(f.Data)
}
