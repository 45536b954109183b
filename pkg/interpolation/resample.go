package interpolation

import (
	"fmt"

	"gonum.org/v1/gonum/interp"

	"holoscope/internal/models"
)

// Resample interpolates field, whose samples sit on Canonical(field.Width, field.Height),
// onto target using bilinear interpolation.
//
// Bilinear interpolation on a regular grid is separable: each source row is
// interpolated linearly along x at the target columns, then each resulting
// column is interpolated linearly along y at the target rows.
//
// Any target coordinate outside the source extent is rejected with
// ErrOutOfBoundsInterpolation; values are never extrapolated.
//
// Parameters:
//   - field: real field of at least 2x2 samples
//   - target: grid of increasing coordinates inside the source extent
//
// Returns:
//   - A target.Width() x target.Height() field, or an error wrapping
//     ErrInvalidField or ErrOutOfBoundsInterpolation
func Resample(field *models.Field, target Grid) (*models.Field, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("resample source: %w", models.ErrInvalidField)
	}
	if field.Width < 2 || field.Height < 2 {
		return nil, fmt.Errorf("resample source is %dx%d, need at least 2x2: %w",
			field.Width, field.Height, models.ErrInvalidField)
	}
	if target.Width() == 0 || target.Height() == 0 {
		return nil, fmt.Errorf("resample target grid is empty: %w", models.ErrInvalidField)
	}

	src := Canonical(field.Width, field.Height)
	if err := checkAxis("x", src.X, target.X); err != nil {
		return nil, err
	}
	if err := checkAxis("y", src.Y, target.Y); err != nil {
		return nil, err
	}

	outW, outH := target.Width(), target.Height()

	// Pass 1: interpolate along x, producing field.Height rows of outW samples
	rows := make([]float64, field.Height*outW)
	var pl interp.PiecewiseLinear
	for y := 0; y < field.Height; y++ {
		if err := pl.Fit(src.X, field.Row(y)); err != nil {
			return nil, fmt.Errorf("fitting row %d: %v", y, err)
		}
		for i, x := range target.X {
			rows[y*outW+i] = pl.Predict(x)
		}
	}

	// Pass 2: interpolate along y for every output column
	out := models.NewField(outW, outH)
	column := make([]float64, field.Height)
	for x := 0; x < outW; x++ {
		for y := 0; y < field.Height; y++ {
			column[y] = rows[y*outW+x]
		}
		if err := pl.Fit(src.Y, column); err != nil {
			return nil, fmt.Errorf("fitting column %d: %v", x, err)
		}
		for j, y := range target.Y {
			out.Set(x, j, pl.Predict(y))
		}
	}

	return out, nil
}

// ResampleTo resamples field onto the same centered extent using
// outWidth x outHeight points. Equal sizes reproduce the field.
func ResampleTo(field *models.Field, outWidth, outHeight int) (*models.Field, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("resample source: %w", models.ErrInvalidField)
	}
	return Resample(field, Scaled(field.Width, field.Height, outWidth, outHeight))
}

// checkAxis verifies that query coordinates are increasing and inside the source axis.
func checkAxis(name string, src, query []float64) error {
	lo, hi := src[0], src[len(src)-1]
	for i, q := range query {
		if q != q || q < lo || q > hi {
			return fmt.Errorf("%s[%d]=%g outside [%g, %g]: %w", name, i, q, lo, hi, models.ErrOutOfBoundsInterpolation)
		}
		if i > 0 && q <= query[i-1] {
			return fmt.Errorf("%s axis not strictly increasing at %d: %w", name, i, models.ErrInvalidField)
		}
	}
	return nil
}
