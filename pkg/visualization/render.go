package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"holoscope/internal/models"
)

// Outline is the color used to draw particle bounding boxes
var Outline = color.RGBA{R: 255, A: 255}

// FieldImage renders a real field as an 8-bit grayscale image, stretching the
// finite value range linearly onto [0, 255]. Non-finite samples render black.
// A constant field renders all black.
func FieldImage(f *models.Field) (*image.Gray, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("cannot render empty or malformed field: %w", models.ErrInvalidField)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	span := hi - lo
	if !(span > 0) {
		return img, nil
	}
	for i, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		img.Pix[offset(img, f.Width, i)] = uint8(math.Round((v - lo) / span * 255))
	}
	return img, nil
}

// ClippedImage renders a field without normalization, clipping each sample to
// [0, 255]. Used for display-variant contrast that is already in pixel units.
func ClippedImage(f *models.Field) (*image.Gray, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("cannot render empty or malformed field: %w", models.ErrInvalidField)
	}
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for i, v := range f.Data {
		if math.IsNaN(v) {
			continue
		}
		img.Pix[offset(img, f.Width, i)] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	return img, nil
}

// MaskImage renders foreground as white and background as black
func MaskImage(m *models.Mask) (*image.Gray, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("cannot render empty or malformed mask: %w", models.ErrInvalidField)
	}
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, on := range m.Bits {
		if on {
			img.Pix[offset(img, m.Width, i)] = 255
		}
	}
	return img, nil
}

// Annotate draws the bounding box of every particle over base
func Annotate(base image.Image, particles []models.Particle) *image.RGBA {
	b := base.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, base, b.Min, draw.Src)

	for _, p := range particles {
		r := p.Bounds.Intersect(b)
		if r.Empty() {
			continue
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			out.SetRGBA(x, r.Min.Y, Outline)
			out.SetRGBA(x, r.Max.Y-1, Outline)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			out.SetRGBA(r.Min.X, y, Outline)
			out.SetRGBA(r.Max.X-1, y, Outline)
		}
	}
	return out
}

// offset maps a row-major sample index to its position in img.Pix
func offset(img *image.Gray, width, i int) int {
	return (i/width)*img.Stride + i%width
}
