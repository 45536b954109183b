// Package contrast forms contrast holograms from sample and reference exposures.
//
// The contrast field isolates the diffraction signal of objects present only in
// the sample frame: contrast = reference - sample. The sign convention is fixed
// here and must not be flipped downstream.
package contrast

import (
	"fmt"
	"image"
	"math"

	"holoscope/internal/models"
)

// Validate checks that sample and reference are non-empty and share a shape.
// The frames are returned unchanged.
func Validate(sample, reference *models.Frame) (*models.Frame, *models.Frame, error) {
	if err := checkFrame("sample", sample); err != nil {
		return nil, nil, err
	}
	if err := checkFrame("reference", reference); err != nil {
		return nil, nil, err
	}
	if sample.Width != reference.Width || sample.Height != reference.Height {
		return nil, nil, fmt.Errorf("sample is %dx%d, reference is %dx%d: %w",
			sample.Width, sample.Height, reference.Width, reference.Height, models.ErrDimensionMismatch)
	}
	return sample, reference, nil
}

func checkFrame(name string, f *models.Frame) error {
	if f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0 {
		return fmt.Errorf("%s frame has no samples: %w", name, models.ErrEmptyFrame)
	}
	if len(f.Pix) != f.Width*f.Height {
		return fmt.Errorf("%s frame declares %dx%d but holds %d samples: %w",
			name, f.Width, f.Height, len(f.Pix), models.ErrDimensionMismatch)
	}
	return nil
}

// Compute returns the unclipped signed contrast field reference - sample.
// This is the variant that feeds propagation.
func Compute(sample, reference *models.Frame) (*models.ContrastField, error) {
	sample, reference, err := Validate(sample, reference)
	if err != nil {
		return nil, err
	}

	out := models.NewField(sample.Width, sample.Height)
	for i := range out.Data {
		out.Data[i] = reference.Pix[i] - sample.Pix[i]
	}
	return out, nil
}

// Display returns the contrast clipped to [0, 255] and rounded to 8-bit levels.
// The result is tagged Lossy: clipping discards the negative half of the
// signal, so it is only suitable for presentation.
func Display(sample, reference *models.Frame) (*models.ContrastField, error) {
	out, err := Compute(sample, reference)
	if err != nil {
		return nil, err
	}
	for i, v := range out.Data {
		out.Data[i] = math.Round(math.Max(0, math.Min(255, v)))
	}
	out.Lossy = true
	return out, nil
}

// Mean averages several exposures of the same scene pixel by pixel.
// Averaging N frames before subtraction reduces sensor noise ("mean mode").
func Mean(frames ...*models.Frame) (*models.Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to average: %w", models.ErrEmptyFrame)
	}
	first := frames[0]
	if err := checkFrame("frame 0", first); err != nil {
		return nil, err
	}

	out := models.NewFrame(first.Width, first.Height)
	for i, f := range frames {
		if err := checkFrame(fmt.Sprintf("frame %d", i), f); err != nil {
			return nil, err
		}
		if f.Width != first.Width || f.Height != first.Height {
			return nil, fmt.Errorf("frame %d is %dx%d, expected %dx%d: %w",
				i, f.Width, f.Height, first.Width, first.Height, models.ErrDimensionMismatch)
		}
		for j, v := range f.Pix {
			out.Pix[j] += v
		}
	}

	n := float64(len(frames))
	for j := range out.Pix {
		out.Pix[j] /= n
	}
	return out, nil
}

// Crop copies the part of f inside rect. The rectangle is clipped to the frame.
func Crop(f *models.Frame, rect image.Rectangle) (*models.Frame, error) {
	if err := checkFrame("source", f); err != nil {
		return nil, err
	}
	r := rect.Canon().Intersect(f.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("crop %v does not overlap %dx%d frame: %w", rect, f.Width, f.Height, models.ErrEmptyFrame)
	}

	out := models.NewFrame(r.Dx(), r.Dy())
	for y := 0; y < out.Height; y++ {
		src := f.Pix[(r.Min.Y+y)*f.Width+r.Min.X : (r.Min.Y+y)*f.Width+r.Max.X]
		copy(out.Pix[y*out.Width:(y+1)*out.Width], src)
	}
	return out, nil
}

// CropSquare returns the centered square of side min(width, height).
// Propagation requires square fields, so rectangular sensors are cropped first.
func CropSquare(f *models.Frame) (*models.Frame, error) {
	if err := checkFrame("source", f); err != nil {
		return nil, err
	}
	side := f.Width
	if f.Height < side {
		side = f.Height
	}
	left := (f.Width - side) / 2
	top := (f.Height - side) / 2
	return Crop(f, image.Rect(left, top, left+side, top+side))
}
