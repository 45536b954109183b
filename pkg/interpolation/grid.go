// Package interpolation resamples pixel-indexed fields onto centered,
// physically addressed coordinate grids.
package interpolation

// Grid is a pair of 1-D coordinate axes defining a rectilinear sample lattice.
// X addresses columns and Y addresses rows; both must be strictly increasing.
type Grid struct {
	X []float64
	Y []float64
}

// Width returns the number of columns addressed by the grid.
func (g Grid) Width() int { return len(g.X) }

// Height returns the number of rows addressed by the grid.
func (g Grid) Height() int { return len(g.Y) }

// Linspace returns n evenly spaced samples over [start, stop], both ends included.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	// pin the endpoint so bounds checks against stop are exact
	out[n-1] = stop
	return out
}

// Canonical returns the centered grid linspace(-dim/2, dim/2, dim) on each axis.
func Canonical(width, height int) Grid {
	return Grid{
		X: Linspace(-float64(width)/2, float64(width)/2, width),
		Y: Linspace(-float64(height)/2, float64(height)/2, height),
	}
}

// Scaled returns a grid spanning the same extent as Canonical(width, height)
// sampled at outWidth x outHeight points.
func Scaled(width, height, outWidth, outHeight int) Grid {
	return Grid{
		X: Linspace(-float64(width)/2, float64(width)/2, outWidth),
		Y: Linspace(-float64(height)/2, float64(height)/2, outHeight),
	}
}

// Physical returns the canonical grid multiplied by the pixel pitch, giving
// sample positions in meters.
func Physical(width, height int, pitchX, pitchY float64) Grid {
	g := Canonical(width, height)
	for i := range g.X {
		g.X[i] *= pitchX
	}
	for i := range g.Y {
		g.Y[i] *= pitchY
	}
	return g
}
