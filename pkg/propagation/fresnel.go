package propagation

import (
	"math"

	"holoscope/internal/models"
)

// fresnel reconstructs the field with the single-FFT Fresnel transform:
//
//	E[k,l] = exp(-iπ/(λd) · ((k·dx)² + (l·dx)²)),  k,l ∈ [-n/2, n/2)
//	U      = fftshift(fft2(H ⊙ E))
//
// This is exact only within the paraxial Fresnel regime, not for all distances.
func fresnel(h *models.ComplexField, p Params) *models.ComplexField {
	n := h.Width
	dx := p.PixelPitch
	a := -math.Pi / (p.Wavelength * p.Distance)
	half := float64(n) / 2

	data := make([]complex128, len(h.Data))
	for row := 0; row < n; row++ {
		l := (float64(row) - half) * dx
		for col := 0; col < n; col++ {
			k := (float64(col) - half) * dx
			s, c := math.Sincos(a * (k*k + l*l))
			data[row*n+col] = h.Data[row*n+col] * complex(c, s)
		}
	}

	snap(data)
	fft2(data, n, n, false)

	return &models.ComplexField{Width: n, Height: n, Data: fftShift2(data, n, n)}
}
