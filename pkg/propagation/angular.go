package propagation

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"holoscope/internal/models"
)

// angularSpectrum propagates the field with the free-space transfer function
//
//	H(fx, fy) = exp(i·2π·d·sqrt(1/λ² − fx² − fy²))
//
// applied in the unshifted FFT frequency layout. Evanescent components, where
// fx² + fy² > 1/λ², are set to zero.
func angularSpectrum(u *models.ComplexField, p Params) *models.ComplexField {
	w, h := u.Width, u.Height
	dx, dy := p.Pitch()

	data := make([]complex128, len(u.Data))
	copy(data, u.Data)
	snap(data)
	fft2(data, w, h, false)

	fxs := frequencies(w, dx)
	fys := frequencies(h, dy)
	k2 := 1 / (p.Wavelength * p.Wavelength)
	for row, fy := range fys {
		for col, fx := range fxs {
			i := row*w + col
			arg := k2 - fx*fx - fy*fy
			if arg < 0 {
				data[i] = 0
				continue
			}
			s, c := math.Sincos(2 * math.Pi * p.Distance * math.Sqrt(arg))
			data[i] *= complex(c, s)
		}
	}

	fft2(data, w, h, true)
	return &models.ComplexField{Width: w, Height: h, Data: data}
}

// frequencies returns the spatial frequency, in cycles per meter, of every
// FFT coefficient for n samples spaced pitch meters apart.
func frequencies(n int, pitch float64) []float64 {
	plan := fourier.NewCmplxFFT(n)
	out := make([]float64, n)
	for i := range out {
		out[i] = plan.Freq(i) / pitch
	}
	return out
}
