package propagation

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"holoscope/internal/models"
)

// testParams mirrors a typical bench: 3.45 µm pixels, 532 nm laser, 5 cm distance
func testParams() Params {
	return Params{
		PixelPitch: 3.45e-6,
		Wavelength: 532e-9,
		Distance:   0.05,
	}
}

// createDelta returns an n x n field with a single unit sample at (cx, cy)
func createDelta(n, cx, cy int) *models.ComplexField {
	f := models.NewComplexField(n, n)
	f.Set(cx, cy, 1)
	return f
}

// maxDiff returns the largest sample-wise modulus of a - b
func maxDiff(a, b []complex128) float64 {
	worst := 0.0
	for i := range a {
		if d := cmplx.Abs(a[i] - b[i]); d > worst {
			worst = d
		}
	}
	return worst
}

// TestZeroDistanceIdentity verifies that d = 0 leaves a delta unchanged for both methods
func TestZeroDistanceIdentity(t *testing.T) {
	for _, method := range []Method{Fresnel, AngularSpectrum} {
		t.Run(method.String(), func(t *testing.T) {
			p := testParams()
			p.Distance = 0
			in := createDelta(16, 5, 9)

			out, err := Propagate(in, p, method)
			if err != nil {
				t.Fatalf("Propagate failed: %v", err)
			}
			if out == in {
				t.Errorf("Expected a new field, got the input pointer")
			}
			if d := maxDiff(out.Data, in.Data); d > 1e-12 {
				t.Errorf("Expected identity at d=0, max deviation %g", d)
			}
		})
	}
}

// TestAngularSpectrumTransferAtZero runs the full transform at d = 0 and checks
// that it reduces to the identity when every component is propagating
func TestAngularSpectrumTransferAtZero(t *testing.T) {
	p := testParams()
	p.Distance = 0
	in := createDelta(16, 8, 8)

	out := angularSpectrum(in, p)
	if d := maxDiff(out.Data, in.Data); d > 1e-12 {
		t.Errorf("Expected identity transfer function at d=0, max deviation %g", d)
	}
}

// TestFresnelMatchesDirectSum compares the FFT implementation with a brute-force
// evaluation of the centered discrete Fresnel transform
func TestFresnelMatchesDirectSum(t *testing.T) {
	const n = 6
	p := testParams()
	p.Distance = 0.01

	in := models.NewComplexField(n, n)
	for i := range in.Data {
		in.Data[i] = complex(float64((i*7)%5)-2, 0)
	}

	out, err := Propagate(in, p, Fresnel)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	half := float64(n) / 2
	a := -math.Pi / (p.Wavelength * p.Distance)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			var want complex128
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					k := (float64(x) - half) * p.PixelPitch
					l := (float64(y) - half) * p.PixelPitch
					kernel := cmplx.Exp(complex(0, a*(k*k+l*l)))
					theta := -2 * math.Pi * ((float64(c)-half)*float64(x) + (float64(r)-half)*float64(y)) / n
					want += in.At(x, y) * kernel * cmplx.Exp(complex(0, theta))
				}
			}
			if d := cmplx.Abs(out.At(c, r) - want); d > 1e-9 {
				t.Errorf("(%d,%d): expected %v, got %v", c, r, want, out.At(c, r))
			}
		}
	}
}

// TestAngularSpectrumRoundTrip propagates forward and back and expects the input
func TestAngularSpectrumRoundTrip(t *testing.T) {
	const n = 32
	in := models.NewComplexField(n, n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if (x-16)*(x-16)+(y-16)*(y-16) < 25 {
				in.Set(x, y, 1)
			}
		}
	}

	p := testParams()
	p.Distance = 0.002
	forward, err := Propagate(in, p, AngularSpectrum)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}
	if d := maxDiff(forward.Data, in.Data); d < 1e-3 {
		t.Errorf("Expected propagation to change the field, max deviation %g", d)
	}

	p.Distance = -p.Distance
	back := angularSpectrum(forward, p)
	if d := maxDiff(back.Data, in.Data); d > 1e-9 {
		t.Errorf("Expected back-propagation to recover the input, max deviation %g", d)
	}
}

// TestAngularSpectrumConservesEnergy checks Parseval for purely propagating fields
func TestAngularSpectrumConservesEnergy(t *testing.T) {
	in := createDelta(16, 3, 4)
	p := testParams()
	p.PixelPitchY = 5e-6

	out, err := Propagate(in, p, AngularSpectrum)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}
	energy := 0.0
	for _, v := range out.Data {
		energy += real(v)*real(v) + imag(v)*imag(v)
	}
	if math.Abs(energy-1) > 1e-9 {
		t.Errorf("Expected unit energy, got %g", energy)
	}
}

// TestEvanescentSuppression uses a pitch below half a wavelength so that the
// highest frequencies are evanescent and must be removed
func TestEvanescentSuppression(t *testing.T) {
	in := createDelta(16, 0, 0)
	p := Params{PixelPitch: 100e-9, Wavelength: 532e-9, Distance: 1e-6}

	out := angularSpectrum(in, p)
	energy := 0.0
	for _, v := range out.Data {
		energy += real(v)*real(v) + imag(v)*imag(v)
	}
	if energy >= 1 {
		t.Errorf("Expected evanescent components to be dropped, energy %g", energy)
	}
	for _, v := range out.Data {
		if cmplx.IsNaN(v) {
			t.Fatalf("Expected no NaN samples in output")
		}
	}
}

// TestSnapSuppressesNoise verifies that sub-threshold samples never reach the FFT
func TestSnapSuppressesNoise(t *testing.T) {
	in := models.NewComplexField(8, 8)
	for i := range in.Data {
		in.Data[i] = complex(1e-12, 0)
	}
	out, err := Propagate(in, testParams(), Fresnel)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}
	for i, v := range out.Data {
		if v != 0 {
			t.Fatalf("index %d: expected exact zero, got %v", i, v)
		}
	}
}

// TestPropagateRejectsInvalidInput covers the InvalidPropagationParameters cases
func TestPropagateRejectsInvalidInput(t *testing.T) {
	square := createDelta(8, 4, 4)
	rect := models.NewComplexField(8, 6)

	anisotropic := testParams()
	anisotropic.PixelPitchY = 2e-6

	noWavelength := testParams()
	noWavelength.Wavelength = 0

	negative := testParams()
	negative.Distance = -0.01

	badPitch := testParams()
	badPitch.PixelPitch = -1

	nanDistance := testParams()
	nanDistance.Distance = math.NaN()

	cases := []struct {
		name   string
		field  *models.ComplexField
		params Params
		method Method
	}{
		{"non-square", rect, testParams(), AngularSpectrum},
		{"empty", &models.ComplexField{}, testParams(), Fresnel},
		{"nil", nil, testParams(), Fresnel},
		{"anisotropic fresnel", square, anisotropic, Fresnel},
		{"zero wavelength", square, noWavelength, AngularSpectrum},
		{"negative distance", square, negative, Fresnel},
		{"negative pitch", square, badPitch, AngularSpectrum},
		{"nan distance", square, nanDistance, AngularSpectrum},
		{"unknown method", square, testParams(), Method(7)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Propagate(tc.field, tc.params, tc.method)
			if !errors.Is(err, models.ErrInvalidPropagationParameters) {
				t.Errorf("Expected ErrInvalidPropagationParameters, got %v", err)
			}
		})
	}

	if _, err := Propagate(square, anisotropic, AngularSpectrum); err != nil {
		t.Errorf("Expected angular spectrum to accept anisotropic pixels, got %v", err)
	}
}

// TestParseMethod checks configuration names
func TestParseMethod(t *testing.T) {
	names := map[string]Method{
		"fresnel":           Fresnel,
		"Fresnel":           Fresnel,
		"angular_spectrum":  AngularSpectrum,
		" angular-spectrum": AngularSpectrum,
	}
	for name, want := range names {
		got, err := ParseMethod(name)
		if err != nil {
			t.Errorf("ParseMethod(%q) failed: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseMethod(%q): expected %v, got %v", name, want, got)
		}
	}
	if _, err := ParseMethod("huygens"); !errors.Is(err, models.ErrInvalidPropagationParameters) {
		t.Errorf("Expected ErrInvalidPropagationParameters for unknown method, got %v", err)
	}
}

// TestPromote verifies promotion and refusal of display-clipped contrast
func TestPromote(t *testing.T) {
	f := &models.Field{Width: 2, Height: 1, Data: []float64{-3, 4}}
	c, err := Promote(f)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if c.Data[0] != complex(-3, 0) || c.Data[1] != complex(4, 0) {
		t.Errorf("Unexpected promoted samples %v", c.Data)
	}

	f.Lossy = true
	if _, err := Promote(f); !errors.Is(err, models.ErrInvalidField) {
		t.Errorf("Expected ErrInvalidField for lossy field, got %v", err)
	}
}
