package measurement

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"holoscope/internal/models"
)

// moments describes a component by the ellipse with the same first and
// second central moments.
type moments struct {
	centroid    models.Point
	major       float64
	minor       float64
	orientation float64
}

// computeMoments derives the centroid and ellipse axes of a set of pixel
// coordinates. Axis lengths are 4·sqrt(λ) for the eigenvalues λ of the
// population covariance of the coordinates.
func computeMoments(xs, ys []float64) moments {
	cx, varX := stat.PopMeanVariance(xs, nil)
	cy, varY := stat.PopMeanVariance(ys, nil)

	cov := 0.0
	for i := range xs {
		cov += (xs[i] - cx) * (ys[i] - cy)
	}
	cov /= float64(len(xs))

	m := moments{centroid: models.Point{X: cx, Y: cy}}

	var eig mat.EigenSym
	if !eig.Factorize(mat.NewSymDense(2, []float64{varX, cov, cov, varY}), false) {
		return m
	}
	// eigenvalues are returned in ascending order
	vals := eig.Values(nil)
	m.minor = 4 * math.Sqrt(math.Max(vals[0], 0))
	m.major = 4 * math.Sqrt(math.Max(vals[1], 0))
	m.orientation = 0.5 * math.Atan2(2*cov, varX-varY)
	return m
}
