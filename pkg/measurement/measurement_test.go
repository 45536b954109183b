package measurement

import (
	"errors"
	"image"
	"math"
	"testing"

	"holoscope/internal/models"
)

// fillRect sets every pixel of r in m
func fillRect(m *models.Mask, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y, true)
		}
	}
}

// TestAnalyzeEmptyMask verifies that no foreground yields an empty sequence
func TestAnalyzeEmptyMask(t *testing.T) {
	particles, err := AnalyzeParticles(models.NewMask(32, 32), nil)
	if err != nil {
		t.Fatalf("AnalyzeParticles failed: %v", err)
	}
	if particles == nil || len(particles) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", particles)
	}
}

// TestAnalyzeSingleSquare checks area and centroid of an isolated 3x3 square
func TestAnalyzeSingleSquare(t *testing.T) {
	m := models.NewMask(20, 20)
	fillRect(m, image.Rect(5, 7, 8, 10))

	particles, err := AnalyzeParticles(m, nil)
	if err != nil {
		t.Fatalf("AnalyzeParticles failed: %v", err)
	}
	if len(particles) != 1 {
		t.Fatalf("Expected 1 particle, got %d", len(particles))
	}
	p := particles[0]
	if p.Label != 1 {
		t.Errorf("Expected label 1, got %d", p.Label)
	}
	if p.Area != 9 {
		t.Errorf("Expected area 9, got %d", p.Area)
	}
	if p.Centroid.X != 6 || p.Centroid.Y != 8 {
		t.Errorf("Expected centroid (6, 8), got (%f, %f)", p.Centroid.X, p.Centroid.Y)
	}
	if p.Bounds != image.Rect(5, 7, 8, 10) {
		t.Errorf("Expected bounds (5,7)-(8,10), got %v", p.Bounds)
	}
	// population variance of {-1, 0, 1} is 2/3 on each axis
	want := 4 * math.Sqrt(2.0/3.0)
	if math.Abs(p.MajorAxis-want) > 1e-9 || math.Abs(p.MinorAxis-want) > 1e-9 {
		t.Errorf("Expected both axes %f, got %f and %f", want, p.MajorAxis, p.MinorAxis)
	}
}

// TestAnalyzeConnectivity checks 8-connectivity and raster label order
func TestAnalyzeConnectivity(t *testing.T) {
	m := models.NewMask(10, 10)
	// diagonal chain joins into one component under 8-connectivity
	m.Set(1, 1, true)
	m.Set(2, 2, true)
	m.Set(3, 3, true)
	// separate component whose first raster pixel comes earlier
	fillRect(m, image.Rect(7, 0, 9, 2))

	particles, err := AnalyzeParticles(m, nil)
	if err != nil {
		t.Fatalf("AnalyzeParticles failed: %v", err)
	}
	if len(particles) != 2 {
		t.Fatalf("Expected 2 particles, got %d", len(particles))
	}
	if particles[0].Area != 4 || particles[0].Centroid.X != 7.5 {
		t.Errorf("Expected first label to be the 2x2 block, got %+v", particles[0])
	}
	if particles[1].Area != 3 || particles[1].Label != 2 {
		t.Errorf("Expected second label to be the diagonal chain, got %+v", particles[1])
	}
	if particles[1].MinorAxis > 1e-6 {
		t.Errorf("Expected a line to have zero minor axis, got %f", particles[1].MinorAxis)
	}
	if math.Abs(particles[1].Orientation-math.Pi/4) > 1e-9 {
		t.Errorf("Expected diagonal orientation π/4, got %f", particles[1].Orientation)
	}
}

// TestAnalyzeROI verifies cropping and original-frame coordinates
func TestAnalyzeROI(t *testing.T) {
	m := models.NewMask(40, 40)
	fillRect(m, image.Rect(2, 2, 5, 5))
	fillRect(m, image.Rect(20, 22, 23, 25))

	// reversed corners as a mouse drag would produce
	roi := image.Rect(30, 30, 15, 15)
	particles, err := AnalyzeParticles(m, &roi)
	if err != nil {
		t.Fatalf("AnalyzeParticles failed: %v", err)
	}
	if len(particles) != 1 {
		t.Fatalf("Expected 1 particle inside ROI, got %d", len(particles))
	}
	if particles[0].Centroid.X != 21 || particles[0].Centroid.Y != 23 {
		t.Errorf("Expected centroid (21, 23) in image frame, got (%f, %f)",
			particles[0].Centroid.X, particles[0].Centroid.Y)
	}

	// an ROI cutting through a component only counts the inside part
	cut := image.Rect(0, 0, 4, 40)
	particles, err = AnalyzeParticles(m, &cut)
	if err != nil {
		t.Fatalf("AnalyzeParticles failed: %v", err)
	}
	if len(particles) != 1 || particles[0].Area != 6 {
		t.Errorf("Expected one clipped particle of area 6, got %+v", particles)
	}

	outside := image.Rect(100, 100, 120, 120)
	particles, err = AnalyzeParticles(m, &outside)
	if err != nil || len(particles) != 0 {
		t.Errorf("Expected no particles outside the mask, got %v (%v)", particles, err)
	}
}

// TestAnalyzeInvalid covers malformed masks
func TestAnalyzeInvalid(t *testing.T) {
	if _, err := AnalyzeParticles(nil, nil); !errors.Is(err, models.ErrInvalidField) {
		t.Errorf("Expected ErrInvalidField, got %v", err)
	}
}

// TestExtents checks ROI length and width
func TestExtents(t *testing.T) {
	length, width := Extents(image.Rect(10, 50, 4, 20))
	if length != 30 || width != 6 {
		t.Errorf("Expected length 30 and width 6, got %d and %d", length, width)
	}
}

// TestCalibrate covers the reference scenario and degenerate lines
func TestCalibrate(t *testing.T) {
	if _, err := Calibrate(models.Point{}, models.Point{}, 100); !errors.Is(err, models.ErrDegenerateLine) {
		t.Errorf("Expected ErrDegenerateLine, got %v", err)
	}

	scale, err := Calibrate(models.Point{X: 0, Y: 0}, models.Point{X: 10, Y: 0}, 100)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if scale.UnitsPerPixel != 10 {
		t.Errorf("Expected 10 units/pixel, got %f", scale.UnitsPerPixel)
	}

	length, err := ToPhysicalLength(5, &scale)
	if err != nil {
		t.Fatalf("ToPhysicalLength failed: %v", err)
	}
	if length != 50 {
		t.Errorf("Expected 50, got %f", length)
	}

	if _, err := Calibrate(models.Point{}, models.Point{X: 1}, 0); !errors.Is(err, models.ErrInvalidReferenceDistance) {
		t.Errorf("Expected ErrInvalidReferenceDistance, got %v", err)
	}
}

// TestToPhysicalLengthWithoutScale checks the missing-calibration error
func TestToPhysicalLengthWithoutScale(t *testing.T) {
	if _, err := ToPhysicalLength(5, nil); !errors.Is(err, models.ErrNoCalibrationSet) {
		t.Errorf("Expected ErrNoCalibrationSet, got %v", err)
	}
	if _, err := PhysicalArea(9, nil); !errors.Is(err, models.ErrNoCalibrationSet) {
		t.Errorf("Expected ErrNoCalibrationSet for area, got %v", err)
	}
}

// TestCalibratorSession exercises the session object with an injected line source
func TestCalibratorSession(t *testing.T) {
	var c Calibrator
	if c.Scale() != nil {
		t.Fatalf("Expected no scale before calibration")
	}
	if _, err := c.Length(3); !errors.Is(err, models.ErrNoCalibrationSet) {
		t.Errorf("Expected ErrNoCalibrationSet before calibration, got %v", err)
	}

	lines := []struct{ a, b models.Point }{
		{models.Point{X: 1, Y: 1}, models.Point{X: 4, Y: 5}},
		{models.Point{X: 0, Y: 0}, models.Point{X: 0, Y: 2}},
	}
	next := 0
	src := func() (models.Point, models.Point, error) {
		l := lines[next]
		next++
		return l.a, l.b, nil
	}

	scale, err := c.CalibrateFrom(src, 10e-6)
	if err != nil {
		t.Fatalf("CalibrateFrom failed: %v", err)
	}
	if math.Abs(scale.UnitsPerPixel-2e-6) > 1e-18 {
		t.Errorf("Expected 2e-6 m/pixel, got %g", scale.UnitsPerPixel)
	}

	px, phys, err := c.MeasureFrom(src)
	if err != nil {
		t.Fatalf("MeasureFrom failed: %v", err)
	}
	if px != 2 || math.Abs(phys-4e-6) > 1e-18 {
		t.Errorf("Expected 2 px and 4e-6 m, got %f px and %g m", px, phys)
	}

	// failed recalibration keeps the previous scale
	if _, err := c.Calibrate(models.Point{X: 3}, models.Point{X: 3}, 1); !errors.Is(err, models.ErrDegenerateLine) {
		t.Errorf("Expected ErrDegenerateLine, got %v", err)
	}
	if c.Scale() == nil {
		t.Errorf("Expected scale to survive failed recalibration")
	}

	failing := func() (models.Point, models.Point, error) {
		return models.Point{}, models.Point{}, errors.New("window closed")
	}
	if _, _, err := c.MeasureFrom(failing); err == nil {
		t.Errorf("Expected line source error to propagate")
	}

	c.Reset()
	if _, _, err := c.MeasureFrom(src); !errors.Is(err, models.ErrNoCalibrationSet) {
		t.Errorf("Expected ErrNoCalibrationSet after reset, got %v", err)
	}
}

// TestMeasure converts particle geometry to physical units
func TestMeasure(t *testing.T) {
	particles := []models.Particle{{Label: 1, Area: 100, MajorAxis: 12, MinorAxis: 8}}
	scale := &Scale{UnitsPerPixel: 0.5}

	out, err := Measure(particles, scale)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if out[0].Area != 25 {
		t.Errorf("Expected area 25, got %f", out[0].Area)
	}
	if math.Abs(out[0].EquivalentDiameter-2*math.Sqrt(100/math.Pi)*0.5) > 1e-12 {
		t.Errorf("Unexpected equivalent diameter %f", out[0].EquivalentDiameter)
	}
	if out[0].MajorAxis != 6 || out[0].MinorAxis != 4 {
		t.Errorf("Expected axes 6 and 4, got %f and %f", out[0].MajorAxis, out[0].MinorAxis)
	}
	if _, err := Measure(particles, nil); !errors.Is(err, models.ErrNoCalibrationSet) {
		t.Errorf("Expected ErrNoCalibrationSet, got %v", err)
	}
}
