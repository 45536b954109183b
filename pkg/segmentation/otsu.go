// Package segmentation turns reconstructed phase or amplitude fields into
// clean foreground masks: a global Otsu threshold followed by morphological
// closing and opening.
package segmentation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"holoscope/internal/models"
)

// HistogramBins is the number of bins used to estimate the Otsu threshold.
const HistogramBins = 256

// Otsu returns the threshold that maximizes the between-class variance of
// the finite samples of f, evaluated at the centres of a HistogramBins-bin
// histogram spanning the sample range.
//
// Empty or all non-finite fields fail with ErrInvalidField. A field with a
// single finite value has no second class and fails with ErrDegenerateHistogram.
func Otsu(f *models.Field) (float64, error) {
	if !f.Valid() {
		return 0, fmt.Errorf("otsu input is empty or malformed: %w", models.ErrInvalidField)
	}

	finite := make([]float64, 0, len(f.Data))
	for _, v := range f.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, fmt.Errorf("otsu input has no finite samples: %w", models.ErrInvalidField)
	}

	lo, hi := floats.Min(finite), floats.Max(finite)
	if lo == hi {
		return 0, fmt.Errorf("all samples equal %g: %w", lo, models.ErrDegenerateHistogram)
	}

	counts := make([]float64, HistogramBins)
	for _, v := range finite {
		bin := int(unitPosition(v, lo, hi) * HistogramBins)
		if bin < 0 {
			bin = 0
		}
		if bin >= HistogramBins {
			bin = HistogramBins - 1
		}
		counts[bin]++
	}

	// Bin centres in [0, 1]. The threshold is affine invariant, so the
	// variance is evaluated there and mapped back to the sample range.
	centers := make([]float64, HistogramBins)
	for i := range centers {
		centers[i] = (float64(i) + 0.5) / HistogramBins
	}

	// Class weights and means for every split point, from below and above
	weighted := make([]float64, HistogramBins)
	floats.MulTo(weighted, counts, centers)

	w1 := floats.CumSum(make([]float64, HistogramBins), counts)
	s1 := floats.CumSum(make([]float64, HistogramBins), weighted)
	w2 := reverseCumSum(counts)
	s2 := reverseCumSum(weighted)

	variance := make([]float64, HistogramBins-1)
	for i := range variance {
		if w1[i] == 0 || w2[i+1] == 0 {
			continue
		}
		d := s1[i]/w1[i] - s2[i+1]/w2[i+1]
		variance[i] = w1[i] * w2[i+1] * d * d
	}

	t := centers[floats.MaxIdx(variance)]
	return (1-t)*lo + t*hi, nil
}

// unitPosition maps v in [lo, hi] onto [0, 1]. Ranges wider than
// math.MaxFloat64 are halved first so the span stays finite.
func unitPosition(v, lo, hi float64) float64 {
	span := hi - lo
	if math.IsInf(span, 0) {
		return (v/2 - lo/2) / (hi/2 - lo/2)
	}
	return (v - lo) / span
}

// reverseCumSum returns out[i] = sum(s[i:]).
func reverseCumSum(s []float64) []float64 {
	out := make([]float64, len(s))
	acc := 0.0
	for i := len(s) - 1; i >= 0; i-- {
		acc += s[i]
		out[i] = acc
	}
	return out
}

// Binarize thresholds f with Otsu's method and returns the mask f > threshold
// together with the threshold. Non-finite samples are background.
func Binarize(f *models.Field) (*models.Mask, float64, error) {
	threshold, err := Otsu(f)
	if err != nil {
		return nil, 0, err
	}
	return Threshold(f, threshold), threshold, nil
}

// Threshold returns the mask f > t.
func Threshold(f *models.Field, t float64) *models.Mask {
	m := models.NewMask(f.Width, f.Height)
	for i, v := range f.Data {
		m.Bits[i] = v > t
	}
	return m
}
