package propagation

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"holoscope/internal/models"
)

// DefaultTrimFraction discards the lower and upper third of the samples.
const DefaultTrimFraction = 0.33

// TrimmedMean returns the mean of data after discarding floor(proportion·n)
// samples from each end of the sorted values. proportion must be in [0, 0.5).
func TrimmedMean(data []float64, proportion float64) (float64, error) {
	n := len(data)
	if n == 0 {
		return 0, fmt.Errorf("trimmed mean of no samples: %w", models.ErrInvalidField)
	}
	if proportion < 0 || proportion >= 0.5 || math.IsNaN(proportion) {
		return 0, fmt.Errorf("trim proportion %g outside [0, 0.5): %w", proportion, models.ErrInvalidField)
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	for _, v := range sorted {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("trimmed mean over non-finite samples: %w", models.ErrInvalidField)
		}
	}
	sort.Float64s(sorted)

	cut := int(proportion * float64(n))
	if cut >= n-cut {
		return 0, fmt.Errorf("trim proportion %g leaves no samples of %d: %w", proportion, n, models.ErrInvalidField)
	}
	return stat.Mean(sorted[cut:n-cut], nil), nil
}

// RemoveBias subtracts the trimmed mean of field from every sample and returns
// the new field together with the subtracted bias.
//
// This is a denoising step for the DC offset left by sensor noise and
// illumination drift. It is not part of the diffraction model and callers may
// skip it.
func RemoveBias(field *models.Field, proportion float64) (*models.Field, float64, error) {
	if !field.Valid() {
		return nil, 0, fmt.Errorf("bias removal input: %w", models.ErrInvalidField)
	}
	bias, err := TrimmedMean(field.Data, proportion)
	if err != nil {
		return nil, 0, err
	}

	out := models.NewField(field.Width, field.Height)
	for i, v := range field.Data {
		out.Data[i] = v - bias
	}
	return out, bias, nil
}
